package kernel

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/proceso"
	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/utils"
)

// profundidadMaxFor limita el anidamiento de FOR en los programas
// generados. Los programas del usuario no tienen tope.
const profundidadMaxFor = 3

// generarProcesos es el bucle del generador automático: mientras esté
// habilitado, cada vez que pasan batch-process-freq ticks sintetiza un
// proceso nuevo y lo encola. Entre sondeos duerme un instante.
func (pl *Planificador) generarProcesos() {
	defer pl.wg.Done()

	for pl.enEjecucion.Load() {
		if pl.generando.Load() {
			tick := pl.reloj.Total()
			if tick-pl.ultimoTickGen.Load() >= int64(pl.config.FrecuenciaGeneracion) {
				pl.ultimoTickGen.Store(tick)
				pl.generarUno()
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// generarUno sintetiza el próximo proceso pN con tamaño potencia de dos
// y programa aleatorio, lo registra y lo encola.
func (pl *Planificador) generarUno() {
	nombre := fmt.Sprintf("p%d", pl.contadorGenerados.Add(1)-1)
	tam := potenciaDeDosAleatoria(pl.config.MemMinProceso, pl.config.MemMaxProceso)
	instrucciones := pl.generarInstrucciones(nombre, tam)

	if err := pl.registrarYEncolar(nombre, tam, instrucciones); err != nil {
		utils.ErrorLog.Error("No se pudo encolar el proceso generado",
			"proceso", nombre, "error", err)
	}
}

// potenciaDeDosAleatoria elige una potencia de dos uniforme en
// [minimo, maximo].
func potenciaDeDosAleatoria(minimo, maximo int) int {
	var potencias []int
	for v := minimo; v <= maximo; v <<= 1 {
		if v > 0 {
			potencias = append(potencias, v)
		}
	}
	if len(potencias) == 0 {
		return minimo
	}
	return potencias[rand.Intn(len(potencias))]
}

// generarInstrucciones arma un programa aleatorio para un proceso de
// tamMem bytes: arranca con un DECLARE y mezcla instrucciones simples con
// FOR (20% de probabilidad, 2-5 repeticiones, 2-4 instrucciones internas).
func (pl *Planificador) generarInstrucciones(nombre string, tamMem int) []proceso.Instruccion {
	objetivo := pl.config.MinInstrucciones
	if pl.config.MaxInstrucciones > pl.config.MinInstrucciones {
		objetivo += rand.Intn(pl.config.MaxInstrucciones - pl.config.MinInstrucciones + 1)
	}

	instrucciones := []proceso.Instruccion{{
		Tipo:      proceso.InstruccionDeclare,
		Operandos: []proceso.Operando{proceso.Variable("x"), proceso.Literal(uint16(rand.Intn(100)))},
	}}

	for len(instrucciones) < objetivo {
		if len(instrucciones) > 1 && rand.Intn(5) == 0 {
			instrucciones = append(instrucciones, pl.generarFor(nombre, tamMem, 1))
		} else {
			instrucciones = append(instrucciones, pl.generarSimple(nombre, tamMem))
		}
	}
	return instrucciones
}

// generarFor arma un FOR con cuerpo aleatorio respetando el tope de
// anidamiento de los programas generados.
func (pl *Planificador) generarFor(nombre string, tamMem int, profundidad int) proceso.Instruccion {
	repeticiones := uint16(rand.Intn(4) + 2)
	largoCuerpo := rand.Intn(3) + 2

	cuerpo := make([]proceso.Instruccion, 0, largoCuerpo)
	for i := 0; i < largoCuerpo; i++ {
		if profundidad < profundidadMaxFor && rand.Intn(10) == 0 {
			cuerpo = append(cuerpo, pl.generarFor(nombre, tamMem, profundidad+1))
		} else {
			cuerpo = append(cuerpo, pl.generarSimple(nombre, tamMem))
		}
	}

	return proceso.Instruccion{
		Tipo:      proceso.InstruccionFor,
		Operandos: []proceso.Operando{proceso.Literal(repeticiones)},
		Cuerpo:    cuerpo,
	}
}

// generarSimple elige una instrucción sin cuerpo con los rangos de
// operandos del enunciado. Las direcciones quedan dentro del espacio del
// proceso.
func (pl *Planificador) generarSimple(nombre string, tamMem int) proceso.Instruccion {
	direccion := func() uint16 {
		if tamMem <= 0 {
			return 0
		}
		return uint16(rand.Intn(tamMem))
	}

	switch rand.Intn(7) {
	case 0:
		return proceso.Instruccion{
			Tipo: proceso.InstruccionRead,
			Operandos: []proceso.Operando{
				proceso.Variable(fmt.Sprintf("var_%d", rand.Intn(5))),
			},
			Direccion: direccion(),
		}
	case 1:
		return proceso.Instruccion{
			Tipo:      proceso.InstruccionWrite,
			Operandos: []proceso.Operando{proceso.Literal(uint16(rand.Intn(100)))},
			Direccion: direccion(),
		}
	case 2:
		return proceso.Instruccion{
			Tipo: proceso.InstruccionAdd,
			Operandos: []proceso.Operando{
				proceso.Variable("x"), proceso.Variable("x"), proceso.Literal(uint16(rand.Intn(100))),
			},
		}
	case 3:
		return proceso.Instruccion{
			Tipo: proceso.InstruccionSubtract,
			Operandos: []proceso.Operando{
				proceso.Variable("x"), proceso.Variable("x"), proceso.Literal(uint16(rand.Intn(50))),
			},
		}
	case 4:
		return proceso.Instruccion{
			Tipo:      proceso.InstruccionSleep,
			Operandos: []proceso.Operando{proceso.Literal(uint16(rand.Intn(20) + 10))},
		}
	case 5:
		return proceso.Instruccion{
			Tipo: proceso.InstruccionDeclare,
			Operandos: []proceso.Operando{
				proceso.Variable(fmt.Sprintf("var_%d", rand.Intn(5))),
				proceso.Literal(uint16(rand.Intn(100))),
			},
		}
	default:
		return proceso.Instruccion{
			Tipo:      proceso.InstruccionPrint,
			Operandos: []proceso.Operando{proceso.Variable("x")},
			Mensaje:   "Value from " + nombre + ": %x%!",
		}
	}
}
