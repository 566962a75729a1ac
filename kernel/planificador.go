package kernel

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/memoria"
	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/proceso"
	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/utils"
)

// ErrNoInicializado indica que se invocó una operación antes de Iniciar.
var ErrNoInicializado = errors.New("el planificador no fue inicializado")

// IntervaloTickPorDefecto es el tiempo de pared de un ciclo de CPU.
const IntervaloTickPorDefecto = 500 * time.Millisecond

// Planificador es el dueño del reloj, la cola de listos, el registro de
// procesos y el pool de trabajadores. Despacha por FCFS o Round-Robin y
// maneja el generador automático de procesos.
type Planificador struct {
	config   Config
	memoria  *memoria.Memoria
	reloj    *Reloj
	cola     *ColaListos
	registro *RegistroProcesos

	enEjecucion   atomic.Bool
	generando     atomic.Bool
	nucleosUsados atomic.Int32

	// IntervaloTick regula la velocidad del reloj. Los tests lo acortan
	// antes de Iniciar.
	IntervaloTick time.Duration

	contadorGenerados atomic.Int64
	ultimoTickGen     atomic.Int64

	wg sync.WaitGroup
}

// NuevoPlanificador construye el planificador con sus colaboradores.
// La memoria se recibe inyectada; reloj, cola y registro son propios.
func NuevoPlanificador(config Config, mem *memoria.Memoria) *Planificador {
	return &Planificador{
		config:        config,
		memoria:       mem,
		reloj:         &Reloj{},
		cola:          NuevaColaListos(),
		registro:      NuevoRegistroProcesos(),
		IntervaloTick: IntervaloTickPorDefecto,
	}
}

// Config devuelve la configuración activa.
func (pl *Planificador) Config() Config {
	return pl.config
}

// Memoria devuelve el administrador de memoria.
func (pl *Planificador) Memoria() *memoria.Memoria {
	return pl.memoria
}

// Reloj devuelve el reloj de ticks.
func (pl *Planificador) Reloj() *Reloj {
	return pl.reloj
}

// EnEjecucion informa si el planificador está corriendo.
func (pl *Planificador) EnEjecucion() bool {
	return pl.enEjecucion.Load()
}

// Generando informa si el generador automático está habilitado.
func (pl *Planificador) Generando() bool {
	return pl.generando.Load()
}

// NucleosUsados devuelve la cantidad de cores ejecutando un proceso.
func (pl *Planificador) NucleosUsados() int {
	return int(pl.nucleosUsados.Load())
}

// TamanioCola devuelve el largo actual de la cola de listos.
func (pl *Planificador) TamanioCola() int {
	return pl.cola.Tamanio()
}

// Iniciar lanza el conductor del reloj, un trabajador por core y el
// generador automático (ocioso hasta habilitarlo).
func (pl *Planificador) Iniciar() {
	if !pl.enEjecucion.CompareAndSwap(false, true) {
		return
	}

	pl.wg.Add(1)
	go pl.conducirReloj()

	for i := 0; i < pl.config.NumCPUs; i++ {
		pl.wg.Add(1)
		go pl.trabajador(i)
	}

	pl.wg.Add(1)
	go pl.generarProcesos()

	utils.InfoLog.Info("Planificador iniciado",
		"nucleos", pl.config.NumCPUs,
		"algoritmo", pl.config.Algoritmo,
		"quantum", pl.config.Quantum)
}

// Detener apaga el sistema en forma cooperativa: baja las banderas,
// despierta a todos los trabajadores, espera a cada goroutine y libera
// los marcos de todos los procesos registrados.
func (pl *Planificador) Detener() {
	if !pl.enEjecucion.CompareAndSwap(true, false) {
		return
	}
	pl.generando.Store(false)
	pl.cola.Cerrar()
	pl.wg.Wait()

	pl.memoria.LiberarTodos()
	utils.InfoLog.Info("Planificador detenido",
		"ticks_totales", pl.reloj.Total(),
		"paginas_entrantes", pl.memoria.PaginadasEntrantes(),
		"paginas_salientes", pl.memoria.PaginadasSalientes())
}

// trabajador es el bucle de un core: desencola, ejecuta un quantum (o
// hasta terminar en FCFS) y libera o re-encola según corresponda.
func (pl *Planificador) trabajador(nucleo int) {
	defer pl.wg.Done()

	for {
		p, ok := pl.cola.Desencolar()
		if !ok {
			return
		}

		if p.Finalizado() {
			pl.memoria.LiberarProceso(p.Nombre())
			continue
		}

		pl.nucleosUsados.Add(1)
		p.FijarNucleo(nucleo)
		p.FijarEnEjecucion(true)

		quantum := -1
		if pl.config.Algoritmo == "rr" {
			quantum = pl.config.Quantum
		}
		err := p.Ejecutar(quantum)

		p.FijarEnEjecucion(false)
		p.FijarNucleo(-1)
		pl.nucleosUsados.Add(-1)

		if err != nil {
			// Falla de E/S del respaldo: fatal. Apagar el planificador
			// desde otra goroutine, este trabajador forma parte del
			// WaitGroup que Detener espera.
			utils.ErrorLog.Error("Error fatal del almacén de respaldo, apagando el planificador",
				"proceso", p.Nombre(), "nucleo", nucleo, "error", err)
			go pl.Detener()
			return
		}

		if p.Finalizado() {
			pl.memoria.LiberarProceso(p.Nombre())
		} else {
			// Solo Round-Robin llega acá: el quantum expiró.
			pl.cola.Encolar(p)
		}
	}
}

// conducirReloj avanza el reloj una vez por intervalo de pared. El tick
// cuenta como ocioso cuando la cola de listos está vacía.
func (pl *Planificador) conducirReloj() {
	defer pl.wg.Done()

	for pl.enEjecucion.Load() {
		pl.reloj.Tick(pl.cola.Tamanio() == 0)
		time.Sleep(pl.IntervaloTick)
	}
}

// CrearProceso valida, registra y encola un proceso definido por el
// usuario. Con instrucciones nil se genera un programa aleatorio.
func (pl *Planificador) CrearProceso(nombre string, bytesVirtuales int, instrucciones []proceso.Instruccion) error {
	if !pl.enEjecucion.Load() {
		return ErrNoInicializado
	}
	if pl.registro.Existe(nombre) {
		return fmt.Errorf("%w: %s", memoria.ErrNombreDuplicado, nombre)
	}
	if !EsPotenciaDeDos(bytesVirtuales) ||
		bytesVirtuales < pl.config.MemMinProceso || bytesVirtuales > pl.config.MemMaxProceso {
		return fmt.Errorf("%w: %d", memoria.ErrTamanioInvalido, bytesVirtuales)
	}

	if instrucciones == nil {
		instrucciones = pl.generarInstrucciones(nombre, bytesVirtuales)
	}
	return pl.registrarYEncolar(nombre, bytesVirtuales, instrucciones)
}

func (pl *Planificador) registrarYEncolar(nombre string, bytesVirtuales int, instrucciones []proceso.Instruccion) error {
	if err := pl.memoria.RegistrarProceso(nombre, bytesVirtuales); err != nil {
		return err
	}

	p := proceso.NuevoProceso(nombre, bytesVirtuales, instrucciones, pl.memoria, pl.config.RetardoPorInstr)
	if !pl.registro.Registrar(p) {
		pl.memoria.LiberarProceso(nombre)
		return fmt.Errorf("%w: %s", memoria.ErrNombreDuplicado, nombre)
	}
	pl.cola.Encolar(p)

	utils.InfoLog.Info("Proceso encolado",
		"proceso", nombre, "bytes", bytesVirtuales, "instrucciones", len(instrucciones))
	return nil
}

// ObtenerProceso busca un proceso por nombre en el registro.
func (pl *Planificador) ObtenerProceso(nombre string) (*proceso.Proceso, bool) {
	return pl.registro.Obtener(nombre)
}

// Procesos devuelve los snapshots de todos los procesos en orden de
// creación.
func (pl *Planificador) Procesos() []proceso.Snapshot {
	todos := pl.registro.Todos()
	snapshots := make([]proceso.Snapshot, 0, len(todos))
	for _, p := range todos {
		snapshots = append(snapshots, p.VerSnapshot())
	}
	return snapshots
}

// IniciarGeneracion habilita el generador automático y siembra un lote
// inicial de un proceso por core.
func (pl *Planificador) IniciarGeneracion() error {
	if !pl.enEjecucion.Load() {
		return ErrNoInicializado
	}
	if !pl.generando.CompareAndSwap(false, true) {
		return nil
	}

	lote := pl.config.NumCPUs
	if lote < 1 {
		lote = 1
	}
	for i := 0; i < lote; i++ {
		pl.generarUno()
	}
	utils.InfoLog.Info("Generación automática habilitada", "lote_inicial", lote)
	return nil
}

// DetenerGeneracion deshabilita el generador automático. Los procesos ya
// encolados siguen su curso.
func (pl *Planificador) DetenerGeneracion() {
	pl.generando.Store(false)
	utils.InfoLog.Info("Generación automática deshabilitada")
}
