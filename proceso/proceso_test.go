package proceso

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/memoria"
	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/utils"
)

func TestMain(m *testing.M) {
	utils.InicializarLogger("error", "test", io.Discard)
	os.Exit(m.Run())
}

func nuevaMemoriaPrueba(t *testing.T, tamTotal, tamMarco int) *memoria.Memoria {
	t.Helper()
	m, err := memoria.NuevaMemoria(tamTotal, tamMarco, filepath.Join(t.TempDir(), "swap.bin"))
	if err != nil {
		t.Fatalf("NuevaMemoria: %v", err)
	}
	t.Cleanup(func() { m.Cerrar() })
	return m
}

// ejecutar corre el proceso y falla el test ante un error fatal del
// respaldo, que ninguno de estos escenarios debería producir.
func ejecutar(t *testing.T, p *Proceso, quantum int) {
	t.Helper()
	if err := p.Ejecutar(quantum); err != nil {
		t.Fatalf("Ejecutar(%d): %v", quantum, err)
	}
}

func declarar(nombre string, valor uint16) Instruccion {
	return Instruccion{
		Tipo:      InstruccionDeclare,
		Operandos: []Operando{Variable(nombre), Literal(valor)},
	}
}

func TestDeclareAddPrint(t *testing.T) {
	mem := nuevaMemoriaPrueba(t, 16384, 4096)
	if err := mem.RegistrarProceso("p1", 1024); err != nil {
		t.Fatal(err)
	}

	programa := []Instruccion{
		declarar("x", 5),
		{Tipo: InstruccionAdd, Operandos: []Operando{Variable("x"), Variable("x"), Literal(7)}},
		{Tipo: InstruccionPrint, Operandos: []Operando{Variable("x")}, Mensaje: "x=%x%"},
	}
	p := NuevoProceso("p1", 1024, programa, mem, 0)
	ejecutar(t, p, -1)

	if !p.Finalizado() {
		t.Fatal("el proceso debería haber terminado")
	}
	salida := p.Salida()
	if len(salida) != 1 {
		t.Fatalf("líneas de salida: %d", len(salida))
	}
	if !strings.Contains(salida[0], "\"x=12\"") {
		t.Fatalf("salida inesperada: %s", salida[0])
	}

	// Una sola página tocada: la de la tabla de símbolos.
	if mem.PaginadasEntrantes() != 1 {
		t.Fatalf("paginadas entrantes: %d", mem.PaginadasEntrantes())
	}
	if mem.PaginadasSalientes() != 0 {
		t.Fatalf("paginadas salientes: %d", mem.PaginadasSalientes())
	}

	mem.LiberarProceso("p1")
	if mem.MarcosUsados() != 0 {
		t.Fatalf("marcos usados tras liberar: %d", mem.MarcosUsados())
	}
}

func TestQuantumCortaLaEjecucion(t *testing.T) {
	mem := nuevaMemoriaPrueba(t, 4096, 64)
	if err := mem.RegistrarProceso("p1", 256); err != nil {
		t.Fatal(err)
	}

	var programa []Instruccion
	for i := 0; i < 6; i++ {
		programa = append(programa, declarar(fmt.Sprintf("v%d", i), uint16(i)))
	}
	p := NuevoProceso("p1", 256, programa, mem, 0)

	ejecutar(t, p, 2)
	if p.Finalizado() {
		t.Fatal("no debería haber terminado tras un quantum de 2")
	}
	if s := p.VerSnapshot(); s.PC != 2 {
		t.Fatalf("PC tras el quantum: %d", s.PC)
	}

	ejecutar(t, p, -1)
	if !p.Finalizado() {
		t.Fatal("debería haber terminado")
	}
	if s := p.VerSnapshot(); s.PC != 6 {
		t.Fatalf("PC final: %d", s.PC)
	}
}

func TestForCuentaComoUnaInstruccion(t *testing.T) {
	mem := nuevaMemoriaPrueba(t, 4096, 64)
	if err := mem.RegistrarProceso("p1", 256); err != nil {
		t.Fatal(err)
	}

	programa := []Instruccion{
		declarar("x", 0),
		{
			Tipo:      InstruccionFor,
			Operandos: []Operando{Literal(3)},
			Cuerpo: []Instruccion{
				{Tipo: InstruccionAdd, Operandos: []Operando{Variable("x"), Variable("x"), Literal(1)}},
			},
		},
	}
	p := NuevoProceso("p1", 256, programa, mem, 0)

	// Quantum 2: DECLARE + FOR completo (el FOR cuenta como una sola).
	ejecutar(t, p, 2)
	if !p.Finalizado() {
		t.Fatal("el FOR cuenta como una instrucción de primer nivel")
	}

	valor, err := mem.Leer("p1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if valor != 3 {
		t.Fatalf("x tras el FOR: %d", valor)
	}
}

func TestForConCeroIteraciones(t *testing.T) {
	mem := nuevaMemoriaPrueba(t, 4096, 64)
	if err := mem.RegistrarProceso("p1", 256); err != nil {
		t.Fatal(err)
	}

	programa := []Instruccion{
		{Tipo: InstruccionFor, Operandos: []Operando{Literal(0)}, Cuerpo: []Instruccion{declarar("x", 1)}},
	}
	p := NuevoProceso("p1", 256, programa, mem, 0)
	ejecutar(t, p, -1)

	if s := p.VerSnapshot(); s.PC != 1 || !s.Finalizado {
		t.Fatalf("FOR con 0 iteraciones: PC=%d finalizado=%v", s.PC, s.Finalizado)
	}
}

func TestViolacionTerminaElProceso(t *testing.T) {
	mem := nuevaMemoriaPrueba(t, 4096, 64)
	if err := mem.RegistrarProceso("p1", 64); err != nil {
		t.Fatal(err)
	}

	programa := []Instruccion{
		{Tipo: InstruccionWrite, Operandos: []Operando{Literal(1)}, Direccion: 0xFFFF},
		declarar("x", 1),
	}
	p := NuevoProceso("p1", 64, programa, mem, 0)
	ejecutar(t, p, -1)

	s := p.VerSnapshot()
	if !s.Violacion || !s.Finalizado {
		t.Fatal("la violación debería terminar el proceso")
	}
	if s.DirViolacion != 0xFFFF {
		t.Fatalf("dirección de la violación: 0x%X", s.DirViolacion)
	}
	if s.PC != 0 {
		t.Fatalf("el PC no debería avanzar tras la violación: %d", s.PC)
	}
	if s.HoraFin.IsZero() {
		t.Fatal("la hora de fin tiene que quedar registrada")
	}

	// Estado absorbente: ejecutar de nuevo no cambia nada.
	ejecutar(t, p, -1)
	if s2 := p.VerSnapshot(); s2.PC != 0 || !s2.Violacion || !s2.HoraFin.Equal(s.HoraFin) {
		t.Fatal("la violación tiene que ser absorbente")
	}
}

func TestTablaSimbolosSaturada(t *testing.T) {
	mem := nuevaMemoriaPrueba(t, 4096, 64)
	if err := mem.RegistrarProceso("p1", 1024); err != nil {
		t.Fatal(err)
	}

	var programa []Instruccion
	for i := 0; i < 40; i++ {
		programa = append(programa, declarar(fmt.Sprintf("v%d", i), uint16(i+1)))
	}
	// v32 es la declaración 33: nunca se asignó.
	programa = append(programa,
		Instruccion{Tipo: InstruccionPrint, Operandos: []Operando{Variable("v32")}, Mensaje: "valor=%v32%"},
		Instruccion{Tipo: InstruccionPrint, Operandos: []Operando{Variable("v31")}, Mensaje: "valor=%v31%"},
	)

	p := NuevoProceso("p1", 1024, programa, mem, 0)
	ejecutar(t, p, -1)

	if !p.Finalizado() || p.Violado() {
		t.Fatal("la saturación no debería terminar el proceso")
	}
	salida := p.Salida()
	if len(salida) != 2 {
		t.Fatalf("líneas de salida: %d", len(salida))
	}
	if !strings.Contains(salida[0], "\"valor=0\"") {
		t.Fatalf("la variable 33 tendría que valer 0: %s", salida[0])
	}
	if !strings.Contains(salida[1], "\"valor=32\"") {
		t.Fatalf("la variable 32 tendría que seguir viva: %s", salida[1])
	}
}

func TestReadEscribeVariable(t *testing.T) {
	mem := nuevaMemoriaPrueba(t, 4096, 64)
	if err := mem.RegistrarProceso("p1", 256); err != nil {
		t.Fatal(err)
	}

	programa := []Instruccion{
		{Tipo: InstruccionWrite, Operandos: []Operando{Literal(4321)}, Direccion: 0x80},
		{Tipo: InstruccionRead, Operandos: []Operando{Variable("y")}, Direccion: 0x80},
		{Tipo: InstruccionPrint, Operandos: []Operando{Variable("y")}, Mensaje: "y=%y%"},
	}
	p := NuevoProceso("p1", 256, programa, mem, 0)
	ejecutar(t, p, -1)

	if p.Violado() {
		t.Fatal("no debería haber violación")
	}
	salida := p.Salida()
	if len(salida) != 1 || !strings.Contains(salida[0], "\"y=4321\"") {
		t.Fatalf("salida: %v", salida)
	}
}

func TestErrorDeSwapSePropaga(t *testing.T) {
	mem := nuevaMemoriaPrueba(t, 4096, 64)
	if err := mem.RegistrarProceso("p1", 256); err != nil {
		t.Fatal(err)
	}

	// Con el archivo de respaldo cerrado, el primer fallo de página
	// produce un error de E/S que tiene que subir al llamador, no
	// registrarse como violación de acceso.
	if err := mem.Cerrar(); err != nil {
		t.Fatal(err)
	}

	p := NuevoProceso("p1", 256, []Instruccion{declarar("x", 1)}, mem, 0)
	err := p.Ejecutar(-1)
	if err == nil {
		t.Fatal("se esperaba un error fatal del respaldo")
	}
	if !errors.Is(err, memoria.ErrSwapIO) {
		t.Fatalf("se esperaba ErrSwapIO, se obtuvo %v", err)
	}
	if p.Violado() {
		t.Fatal("una falla de E/S no es una violación de acceso")
	}
}

func TestSleepReencolaInmediato(t *testing.T) {
	mem := nuevaMemoriaPrueba(t, 4096, 64)
	if err := mem.RegistrarProceso("p1", 256); err != nil {
		t.Fatal(err)
	}

	programa := []Instruccion{
		{Tipo: InstruccionSleep, Operandos: []Operando{Literal(1)}},
		declarar("x", 1),
	}
	p := NuevoProceso("p1", 256, programa, mem, 0)

	// El SLEEP consume tiempo de pared dentro del quantum y el proceso
	// queda listo para re-encolarse sin más espera.
	ejecutar(t, p, 1)
	if p.Finalizado() {
		t.Fatal("queda una instrucción pendiente")
	}
	ejecutar(t, p, 1)
	if !p.Finalizado() {
		t.Fatal("debería haber terminado")
	}
}
