package memoria

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/utils"
)

func TestMain(m *testing.M) {
	utils.InicializarLogger("error", "test", io.Discard)
	os.Exit(m.Run())
}

func nuevaMemoriaPrueba(t *testing.T, tamTotal, tamMarco int) *Memoria {
	t.Helper()
	m, err := NuevaMemoria(tamTotal, tamMarco, filepath.Join(t.TempDir(), "swap.bin"))
	if err != nil {
		t.Fatalf("NuevaMemoria: %v", err)
	}
	t.Cleanup(func() { m.Cerrar() })
	return m
}

func TestRegistroDuplicado(t *testing.T) {
	m := nuevaMemoriaPrueba(t, 256, 64)

	if err := m.RegistrarProceso("p1", 128); err != nil {
		t.Fatalf("primer registro: %v", err)
	}
	err := m.RegistrarProceso("p1", 128)
	if !errors.Is(err, ErrNombreDuplicado) {
		t.Fatalf("se esperaba ErrNombreDuplicado, se obtuvo %v", err)
	}
}

func TestLecturaEscritura(t *testing.T) {
	m := nuevaMemoriaPrueba(t, 256, 64)
	if err := m.RegistrarProceso("p1", 128); err != nil {
		t.Fatal(err)
	}

	if err := m.Escribir("p1", 10, 1234); err != nil {
		t.Fatalf("Escribir: %v", err)
	}
	valor, err := m.Leer("p1", 10)
	if err != nil {
		t.Fatalf("Leer: %v", err)
	}
	if valor != 1234 {
		t.Fatalf("se esperaba 1234, se leyó %d", valor)
	}

	// El byte impar accede a la misma celda de 16 bits.
	valor, err = m.Leer("p1", 11)
	if err != nil {
		t.Fatalf("Leer byte impar: %v", err)
	}
	if valor != 1234 {
		t.Fatalf("celda desalineada: se esperaba 1234, se leyó %d", valor)
	}
}

func TestViolacionAcceso(t *testing.T) {
	m := nuevaMemoriaPrueba(t, 256, 64)
	if err := m.RegistrarProceso("p1", 64); err != nil {
		t.Fatal(err)
	}

	// La última dirección del espacio es válida.
	if _, err := m.Leer("p1", 63); err != nil {
		t.Fatalf("Leer(63): %v", err)
	}

	// La primera fuera del espacio no.
	_, err := m.Leer("p1", 64)
	var viol ViolacionAcceso
	if !errors.As(err, &viol) {
		t.Fatalf("se esperaba ViolacionAcceso, se obtuvo %v", err)
	}
	if viol.Direccion != 64 {
		t.Fatalf("dirección de la violación: se esperaba 64, se obtuvo %d", viol.Direccion)
	}

	if err := m.Escribir("p1", 65535, 1); !errors.As(err, &viol) {
		t.Fatalf("Escribir fuera de rango: se esperaba ViolacionAcceso, se obtuvo %v", err)
	}
}

func TestDesalojoIdaYVuelta(t *testing.T) {
	// Un solo marco: cada acceso de un proceso desaloja al otro.
	m := nuevaMemoriaPrueba(t, 64, 64)
	for _, nombre := range []string{"a", "b"} {
		if err := m.RegistrarProceso(nombre, 128); err != nil {
			t.Fatal(err)
		}
	}

	if err := m.Escribir("a", 0, 111); err != nil {
		t.Fatal(err)
	}
	if err := m.Escribir("b", 0, 222); err != nil {
		t.Fatal(err)
	}

	valor, err := m.Leer("a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if valor != 111 {
		t.Fatalf("a perdió su valor tras el desalojo: %d", valor)
	}
	valor, err = m.Leer("b", 0)
	if err != nil {
		t.Fatal(err)
	}
	if valor != 222 {
		t.Fatalf("b perdió su valor tras el desalojo: %d", valor)
	}

	if m.PaginadasEntrantes() < 4 {
		t.Fatalf("se esperaban al menos 4 páginas entrantes, hubo %d", m.PaginadasEntrantes())
	}
	if m.PaginadasSalientes() < 2 {
		t.Fatalf("se esperaban al menos 2 páginas salientes, hubo %d", m.PaginadasSalientes())
	}
	if m.PaginadasEntrantes() < m.PaginadasSalientes() {
		t.Fatalf("entrantes (%d) < salientes (%d)", m.PaginadasEntrantes(), m.PaginadasSalientes())
	}
}

func TestInvarianteListaLibres(t *testing.T) {
	m := nuevaMemoriaPrueba(t, 256, 64)
	if err := m.RegistrarProceso("p1", 256); err != nil {
		t.Fatal(err)
	}

	comprobar := func(momento string) {
		if libres, usados, totales := m.MarcosLibres(), m.MarcosUsados(), m.MarcosTotales(); libres+usados != totales {
			t.Fatalf("%s: libres(%d) + usados(%d) != totales(%d)", momento, libres, usados, totales)
		}
	}

	comprobar("inicio")
	for dir := uint16(0); dir < 256; dir += 64 {
		if err := m.Escribir("p1", dir, 7); err != nil {
			t.Fatal(err)
		}
		comprobar("tras escritura")
	}
	m.LiberarProceso("p1")
	comprobar("tras liberación")

	if m.MarcosUsados() != 0 {
		t.Fatalf("quedaron %d marcos usados tras liberar", m.MarcosUsados())
	}
}

func TestLiberarIdempotente(t *testing.T) {
	m := nuevaMemoriaPrueba(t, 256, 64)
	if err := m.RegistrarProceso("p1", 128); err != nil {
		t.Fatal(err)
	}
	if err := m.Escribir("p1", 0, 1); err != nil {
		t.Fatal(err)
	}

	m.LiberarProceso("p1")
	m.LiberarProceso("p1")
	m.LiberarProceso("desconocido")

	if m.MarcosLibres() != m.MarcosTotales() {
		t.Fatalf("libres %d != totales %d", m.MarcosLibres(), m.MarcosTotales())
	}
}

func TestReRegistroVuelveAlEstadoInicial(t *testing.T) {
	m := nuevaMemoriaPrueba(t, 256, 64)
	if err := m.RegistrarProceso("p1", 128); err != nil {
		t.Fatal(err)
	}
	if err := m.Escribir("p1", 0, 99); err != nil {
		t.Fatal(err)
	}
	m.LiberarProceso("p1")

	if err := m.RegistrarProceso("p1", 128); err != nil {
		t.Fatalf("re-registro: %v", err)
	}
	if m.ResidenteDe("p1") != 0 {
		t.Fatalf("el proceso re-registrado no debería tener páginas residentes")
	}
	if m.MarcosUsados() != 0 {
		t.Fatalf("marcos usados tras re-registro: %d", m.MarcosUsados())
	}
}

func TestContadoresResidencia(t *testing.T) {
	m := nuevaMemoriaPrueba(t, 256, 64)
	if err := m.RegistrarProceso("p1", 128); err != nil {
		t.Fatal(err)
	}

	if m.ResidenteDe("p1") != 0 {
		t.Fatalf("sin accesos no debería haber residencia")
	}
	if err := m.Escribir("p1", 0, 1); err != nil {
		t.Fatal(err)
	}
	if m.ResidenteDe("p1") != 64 {
		t.Fatalf("residencia esperada 64, hay %d", m.ResidenteDe("p1"))
	}
	if m.BytesTotales() != 256 {
		t.Fatalf("BytesTotales: %d", m.BytesTotales())
	}
	if m.VirtualDe("p1") != 128 {
		t.Fatalf("VirtualDe: %d", m.VirtualDe("p1"))
	}

	usados := m.MarcosUsados() * m.TamMarco()
	if usados > m.BytesTotales() {
		t.Fatalf("usados (%d) supera el total físico (%d)", usados, m.BytesTotales())
	}
}

func TestVictimaPorCursorFIFO(t *testing.T) {
	// Dos marcos y tres páginas calientes: las víctimas deben avanzar por
	// índice 0, 1, 0, ... sin importar suciedad.
	m := nuevaMemoriaPrueba(t, 128, 64)
	if err := m.RegistrarProceso("p1", 256); err != nil {
		t.Fatal(err)
	}

	for pagina := uint16(0); pagina < 3; pagina++ {
		if err := m.Escribir("p1", pagina*64, pagina+1); err != nil {
			t.Fatal(err)
		}
	}

	// Página 0 fue desalojada por la tercera carga (víctima = marco 0);
	// su valor tiene que volver intacto desde el respaldo.
	valor, err := m.Leer("p1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if valor != 1 {
		t.Fatalf("la página 0 volvió con %d, se esperaba 1", valor)
	}

	snapshot := m.SnapshotMarcos()
	if len(snapshot) != 2 {
		t.Fatalf("marcos en snapshot: %d", len(snapshot))
	}
	// La recarga de la página 0 tomó el marco 1 (segunda víctima del
	// cursor), así que el marco 0 sigue con la página 2.
	if snapshot[0].Pagina != 2 || snapshot[1].Pagina != 0 {
		t.Fatalf("víctimas fuera del orden del cursor: marco0=%d marco1=%d",
			snapshot[0].Pagina, snapshot[1].Pagina)
	}
}
