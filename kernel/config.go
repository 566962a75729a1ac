package kernel

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/utils"
)

// Config agrupa los parámetros del emulador. Se carga de un archivo de
// texto plano con un par `clave valor` por línea; las claves desconocidas
// se ignoran y los valores fuera de rango se recortan a sus límites.
type Config struct {
	NumCPUs              int
	Algoritmo            string // "fcfs" o "rr"
	Quantum              int
	FrecuenciaGeneracion int
	MinInstrucciones     int
	MaxInstrucciones     int
	RetardoPorInstr      int
	MemoriaTotal         int
	TamMarco             int
	MemMinProceso        int
	MemMaxProceso        int
	NivelLog             string
	RutaSwap             string
}

// ConfigPorDefecto devuelve los valores usados cuando falta el archivo.
func ConfigPorDefecto() Config {
	return Config{
		NumCPUs:              2,
		Algoritmo:            "rr",
		Quantum:              4,
		FrecuenciaGeneracion: 1,
		MinInstrucciones:     100,
		MaxInstrucciones:     100,
		RetardoPorInstr:      1,
		MemoriaTotal:         16384,
		TamMarco:             16,
		MemMinProceso:        64,
		MemMaxProceso:        65536,
		NivelLog:             "info",
		RutaSwap:             "emulador-swap.bin",
	}
}

// CargarConfig lee la configuración desde ruta. Si el archivo no existe
// devuelve los valores por defecto.
func CargarConfig(ruta string) Config {
	config := ConfigPorDefecto()

	archivo, err := os.Open(ruta)
	if err != nil {
		utils.ErrorLog.Error("No se encontró el archivo de configuración, usando valores por defecto",
			"ruta", ruta)
		return config
	}
	defer archivo.Close()

	scanner := bufio.NewScanner(archivo)
	for scanner.Scan() {
		linea := strings.TrimSpace(scanner.Text())
		if linea == "" {
			continue
		}
		campos := strings.Fields(linea)
		if len(campos) < 2 {
			continue
		}
		clave := campos[0]
		valor := strings.Join(campos[1:], " ")
		valor = strings.Trim(valor, "\"")

		switch clave {
		case "num-cpu":
			config.NumCPUs = recortar(atoi(valor, config.NumCPUs), 1, 128)
		case "scheduler":
			if valor == "fcfs" || valor == "rr" {
				config.Algoritmo = valor
			} else {
				config.Algoritmo = "fcfs"
			}
		case "quantum-cycles":
			config.Quantum = recortarMin(atoi(valor, config.Quantum), 1)
		case "batch-process-freq":
			config.FrecuenciaGeneracion = recortarMin(atoi(valor, config.FrecuenciaGeneracion), 1)
		case "min-ins":
			config.MinInstrucciones = recortarMin(atoi(valor, config.MinInstrucciones), 1)
		case "max-ins":
			config.MaxInstrucciones = recortarMin(atoi(valor, config.MaxInstrucciones), 1)
		case "delays-per-exec":
			config.RetardoPorInstr = recortarMin(atoi(valor, config.RetardoPorInstr), 0)
		case "max-overall-mem":
			config.MemoriaTotal = recortarMin(atoi(valor, config.MemoriaTotal), 1)
		case "mem-per-frame":
			config.TamMarco = recortarMin(atoi(valor, config.TamMarco), 1)
		case "min-mem-per-proc":
			config.MemMinProceso = recortar(atoi(valor, config.MemMinProceso), 64, 65536)
		case "max-mem-per-proc":
			config.MemMaxProceso = recortar(atoi(valor, config.MemMaxProceso), 64, 65536)
		case "log-level":
			config.NivelLog = valor
		case "swapfile-path":
			config.RutaSwap = valor
		}
	}

	if config.MaxInstrucciones < config.MinInstrucciones {
		config.MaxInstrucciones = config.MinInstrucciones
	}
	if config.MemMaxProceso < config.MemMinProceso {
		config.MemMaxProceso = config.MemMinProceso
	}

	utils.InfoLog.Info("Configuración cargada",
		"ruta", ruta,
		"num_cpu", config.NumCPUs,
		"scheduler", config.Algoritmo,
		"quantum", config.Quantum,
		"mem_total", config.MemoriaTotal,
		"tam_marco", config.TamMarco)
	return config
}

func atoi(valor string, porDefecto int) int {
	n, err := strconv.Atoi(valor)
	if err != nil {
		return porDefecto
	}
	return n
}

func recortar(valor, minimo, maximo int) int {
	if valor < minimo {
		return minimo
	}
	if valor > maximo {
		return maximo
	}
	return valor
}

func recortarMin(valor, minimo int) int {
	if valor < minimo {
		return minimo
	}
	return valor
}

func recortarMax(valor, maximo int) int {
	if valor > maximo {
		return maximo
	}
	return valor
}

// EsPotenciaDeDos informa si n es potencia de dos positiva.
func EsPotenciaDeDos(n int) bool {
	return n > 0 && n&(n-1) == 0
}
