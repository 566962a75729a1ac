package kernel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigArchivoFaltante(t *testing.T) {
	config := CargarConfig(filepath.Join(t.TempDir(), "no-existe.txt"))
	porDefecto := ConfigPorDefecto()
	if config != porDefecto {
		t.Fatalf("sin archivo se esperaban los valores por defecto: %+v", config)
	}
}

func TestConfigClavesYRecortes(t *testing.T) {
	contenido := `num-cpu 500
scheduler "rr"
quantum-cycles 0
batch-process-freq 2
min-ins 5
max-ins 9
delays-per-exec -3
max-overall-mem 1024
mem-per-frame 64
min-mem-per-proc 10
max-mem-per-proc 999999
clave-desconocida 42

log-level debug
`
	ruta := filepath.Join(t.TempDir(), "config.txt")
	if err := os.WriteFile(ruta, []byte(contenido), 0644); err != nil {
		t.Fatal(err)
	}

	config := CargarConfig(ruta)

	if config.NumCPUs != 128 {
		t.Errorf("num-cpu sin recortar: %d", config.NumCPUs)
	}
	if config.Algoritmo != "rr" {
		t.Errorf("scheduler con comillas: %s", config.Algoritmo)
	}
	if config.Quantum != 1 {
		t.Errorf("quantum sin recortar: %d", config.Quantum)
	}
	if config.FrecuenciaGeneracion != 2 {
		t.Errorf("batch-process-freq: %d", config.FrecuenciaGeneracion)
	}
	if config.MinInstrucciones != 5 || config.MaxInstrucciones != 9 {
		t.Errorf("min/max-ins: %d/%d", config.MinInstrucciones, config.MaxInstrucciones)
	}
	if config.RetardoPorInstr != 0 {
		t.Errorf("delays-per-exec negativo sin recortar: %d", config.RetardoPorInstr)
	}
	if config.MemoriaTotal != 1024 || config.TamMarco != 64 {
		t.Errorf("memoria: %d/%d", config.MemoriaTotal, config.TamMarco)
	}
	if config.MemMinProceso != 64 {
		t.Errorf("min-mem-per-proc sin recortar: %d", config.MemMinProceso)
	}
	if config.MemMaxProceso != 65536 {
		t.Errorf("max-mem-per-proc sin recortar: %d", config.MemMaxProceso)
	}
	if config.NivelLog != "debug" {
		t.Errorf("log-level: %s", config.NivelLog)
	}
}

func TestConfigAlgoritmoInvalido(t *testing.T) {
	ruta := filepath.Join(t.TempDir(), "config.txt")
	if err := os.WriteFile(ruta, []byte("scheduler sjf\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if config := CargarConfig(ruta); config.Algoritmo != "fcfs" {
		t.Fatalf("algoritmo inválido tendría que caer a fcfs: %s", config.Algoritmo)
	}
}

func TestEsPotenciaDeDos(t *testing.T) {
	casos := map[int]bool{
		0: false, 1: true, 2: true, 3: false, 64: true, 96: false, 65536: true,
	}
	for n, esperado := range casos {
		if EsPotenciaDeDos(n) != esperado {
			t.Errorf("EsPotenciaDeDos(%d) != %v", n, esperado)
		}
	}
}
