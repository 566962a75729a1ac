package consola

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/memoria"
	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/proceso"
	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/utils"
)

const archivoReporte = "csopesy-log.txt"

func (c *Consola) ejecutarComando(linea string) {
	campos := strings.Fields(linea)
	comando := campos[0]

	switch comando {
	case "help":
		c.imprimirAyuda()
		return
	case "clear":
		c.limpiarPantalla()
		return
	case "initialize":
		c.inicializar()
		return
	}

	if c.planificador == nil {
		fmt.Fprintln(c.salida, "Initialize first")
		return
	}

	switch comando {
	case "screen":
		c.comandoScreen(linea, campos)
	case "scheduler-start":
		if c.planificador.Generando() {
			fmt.Fprintln(c.salida, "Scheduler is already active.")
			return
		}
		fmt.Fprintln(c.salida, "Starting scheduler...")
		if err := c.planificador.IniciarGeneracion(); err != nil {
			fmt.Fprintf(c.salida, "Error: %v\n", err)
		}
	case "scheduler-stop":
		if !c.planificador.Generando() {
			fmt.Fprintln(c.salida, "Scheduler is already stopped.")
			return
		}
		fmt.Fprintln(c.salida, "Stopping scheduler...")
		c.planificador.DetenerGeneracion()
	case "process-smi":
		c.imprimirProcessSMI()
	case "vmstat":
		c.imprimirVmstat()
	case "memory-stamp":
		c.escribirEstampaMemoria()
	case "report-util":
		if err := c.planificador.GenerarReporteUtilizacion(archivoReporte); err != nil {
			fmt.Fprintf(c.salida, "Failed to open report file: %v\n", err)
			return
		}
		fmt.Fprintf(c.salida, "Screen list report saved to '%s'.\n", archivoReporte)
	default:
		fmt.Fprintf(c.salida, "Unknown command '%s'. Type 'help' for available commands.\n", comando)
	}
}

func (c *Consola) comandoScreen(linea string, campos []string) {
	if len(campos) < 2 {
		fmt.Fprintln(c.salida, "Use proper screen commands: 'screen -ls', 'screen -s <name> <size>', 'screen -c <name> <size> \"<instrs>\"' or 'screen -r <name>'.")
		return
	}

	switch campos[1] {
	case "-ls":
		c.listarProcesos()

	case "-s":
		if len(campos) != 4 {
			fmt.Fprintln(c.salida, "Usage: screen -s <name> <size>")
			return
		}
		c.crearProceso(campos[2], campos[3], nil)

	case "-c":
		if len(campos) < 5 {
			fmt.Fprintln(c.salida, "Usage: screen -c <name> <size> \"<instructions>\"")
			return
		}
		comienzo := strings.Index(linea, "\"")
		if comienzo == -1 {
			fmt.Fprintln(c.salida, "Usage: screen -c <name> <size> \"<instructions>\"")
			return
		}
		resto := strings.TrimSpace(linea[comienzo:])
		// Quitar exactamente el par de comillas exterior; las interiores
		// pertenecen a los PRINT del programa.
		resto = strings.TrimPrefix(resto, "\"")
		resto = strings.TrimSuffix(resto, "\"")
		instrucciones, err := ParsePrograma(resto)
		if err != nil {
			fmt.Fprintf(c.salida, "Invalid instructions: %v\n", err)
			return
		}
		c.crearProceso(campos[2], campos[3], instrucciones)

	case "-r":
		if len(campos) != 3 {
			fmt.Fprintln(c.salida, "Usage: screen -r <name>")
			return
		}
		c.verProceso(campos[2])

	default:
		fmt.Fprintln(c.salida, "Use proper screen commands: 'screen -ls', 'screen -s <name> <size>', 'screen -c <name> <size> \"<instrs>\"' or 'screen -r <name>'.")
	}
}

func (c *Consola) crearProceso(nombre, tamTexto string, instrucciones []proceso.Instruccion) {
	tam, err := strconv.Atoi(tamTexto)
	if err != nil {
		fmt.Fprintf(c.salida, "Invalid memory size '%s'.\n", tamTexto)
		return
	}

	err = c.planificador.CrearProceso(nombre, tam, instrucciones)
	switch {
	case err == nil:
		fmt.Fprintf(c.salida, "Process %s created with %d bytes of virtual memory.\n", nombre, tam)
	case errors.Is(err, memoria.ErrNombreDuplicado):
		fmt.Fprintf(c.salida, "Screen '%s' already exists.\n", nombre)
	case errors.Is(err, memoria.ErrTamanioInvalido):
		fmt.Fprintf(c.salida, "Invalid memory size %d: must be a power of two within the configured bounds.\n", tam)
	default:
		fmt.Fprintf(c.salida, "Error: %v\n", err)
	}
}

func (c *Consola) listarProcesos() {
	snapshots := c.planificador.Procesos()

	fmt.Fprintln(c.salida, "--------------------------------------------------------------------------------")
	fmt.Fprintln(c.salida, "Processes:")
	for _, s := range snapshots {
		fmt.Fprintf(c.salida, "%-15s", s.Nombre)
		switch {
		case s.Violacion:
			fmt.Fprintf(c.salida, "MEM_FAULT at %s (0x%X invalid)",
				utils.Timestamp(s.HoraViolacion), s.DirViolacion)
		case s.Finalizado:
			fmt.Fprintf(c.salida, "Finished at %s", utils.Timestamp(s.HoraFin))
		case s.EnEjecucion:
			fmt.Fprintf(c.salida, "Running on Core %d", s.Nucleo)
		default:
			fmt.Fprint(c.salida, "Waiting in queue")
		}
		fmt.Fprintf(c.salida, "\t(%d/%d instructions)\n", s.PC, s.Total)
	}
	fmt.Fprintln(c.salida, "--------------------------------------------------------------------------------")
}

// verProceso muestra la pantalla del proceso y atiende su sub-prompt
// (process-smi para el log de salida, exit para volver).
func (c *Consola) verProceso(nombre string) {
	p, existe := c.planificador.ObtenerProceso(nombre)
	if !existe {
		fmt.Fprintf(c.salida, "No such screen named '%s'.\n", nombre)
		return
	}

	s := p.VerSnapshot()
	if s.Violacion {
		fmt.Fprintf(c.salida,
			"Process <%s> shut down due to memory access violation error that occurred at %s. <0x%X> invalid.\n",
			nombre, utils.Timestamp(s.HoraViolacion), s.DirViolacion)
		return
	}
	if s.Finalizado {
		fmt.Fprintf(c.salida, "Screen '%s' has already finished execution.\n", nombre)
		return
	}

	c.dibujarPantalla(p)
	for {
		fmt.Fprintf(c.salida, "%s:\\> ", nombre)
		if !c.entrada.Scan() {
			return
		}
		linea := strings.TrimSpace(c.entrada.Text())
		switch linea {
		case "exit":
			c.limpiarPantalla()
			return
		case "process-smi":
			c.dibujarPantalla(p)
			for _, salida := range p.Salida() {
				fmt.Fprintln(c.salida, salida)
			}
		case "":
		default:
			fmt.Fprintln(c.salida, "Commands inside a screen: 'process-smi', 'exit'.")
		}
	}
}

func (c *Consola) dibujarPantalla(p *proceso.Proceso) {
	s := p.VerSnapshot()
	fmt.Fprintf(c.salida, "%s=== Process Screen: %s ===%s\n", colorAzul, s.Nombre, colorReset)
	fmt.Fprintf(c.salida, "Process name     : %s\n", s.Nombre)
	fmt.Fprintf(c.salida, "Instruction      : %d / %d\n", s.PC, s.Total)
	fmt.Fprintf(c.salida, "Created at       : %s\n", utils.Timestamp(s.HoraCreacion))

	switch {
	case s.Finalizado && !s.Violacion:
		fmt.Fprintf(c.salida, "Status           : Finished at %s\n", utils.Timestamp(s.HoraFin))
	case s.EnEjecucion:
		fmt.Fprintf(c.salida, "Status           : Running on Core %d\n", s.Nucleo)
	default:
		fmt.Fprintln(c.salida, "Status           : Ready in queue")
	}
	fmt.Fprintf(c.salida, "%s\n(Type 'exit' to return to main menu)\n%s", colorVerde, colorReset)
}

func (c *Consola) imprimirProcessSMI() {
	mem := c.planificador.Memoria()
	estado := c.planificador.VerEstado()

	marcosTotales := mem.MarcosTotales()
	marcosUsados := mem.MarcosUsados()
	tamMarco := mem.TamMarco()
	memTotal := marcosTotales * tamMarco
	memUsada := marcosUsados * tamMarco

	utilMem := 0
	if memTotal > 0 {
		utilMem = 100 * memUsada / memTotal
	}
	utilCPU := 0
	if estado.NucleosDisponibles > 0 {
		utilCPU = estado.NucleosUsados * 100 / estado.NucleosDisponibles
	}

	fmt.Fprintln(c.salida, "| PROCESS-SMI V01.00 Driver Version: 01.00 |")
	fmt.Fprintf(c.salida, "CPU-Util: %d%%\n", utilCPU)
	fmt.Fprintf(c.salida, "Memory Usage: %dB / %dB\n", memUsada, memTotal)
	fmt.Fprintf(c.salida, "Memory Util: %d%%\n", utilMem)
	fmt.Fprintln(c.salida, "================================================")
	fmt.Fprintln(c.salida, "Running processes and memory usage:")

	for _, s := range c.planificador.Procesos() {
		if !s.Finalizado {
			fmt.Fprintf(c.salida, "  %-15s%8dB\n", s.Nombre, s.TamVirtual)
		}
	}
}

// escribirEstampaMemoria vuelca la tabla de marcos a un archivo
// memory_stamp_<ciclo>.txt.
func (c *Consola) escribirEstampaMemoria() {
	mem := c.planificador.Memoria()
	ciclo := c.planificador.Reloj().Total()
	nombre := fmt.Sprintf("memory_stamp_%d.txt", ciclo)

	var b strings.Builder
	fmt.Fprintf(&b, "--- Physical Memory Frames at Cycle %d ---\n", ciclo)
	fmt.Fprintf(&b, "Timestamp: (%s)\n", utils.Timestamp(time.Now()))
	fmt.Fprintf(&b, "Total Frames: %d | Frame Size: %d B\n", mem.MarcosTotales(), mem.TamMarco())
	fmt.Fprintf(&b, "%-10s%-15s%-20s%-15s\n", "Frame #", "Status", "Process ID", "Page #")
	b.WriteString("----------------------------------------------------------\n")
	for i, marco := range mem.SnapshotMarcos() {
		if marco.Asignado {
			fmt.Fprintf(&b, "%-10d%-15s%-20s%-15d\n", i, "Used", marco.Proceso, marco.Pagina)
		} else {
			fmt.Fprintf(&b, "%-10d%-15s\n", i, "Free")
		}
	}

	if err := os.WriteFile(nombre, []byte(b.String()), 0644); err != nil {
		fmt.Fprintf(c.salida, "Failed to write memory stamp: %v\n", err)
		return
	}
	fmt.Fprintf(c.salida, "Memory layout saved to '%s'.\n", nombre)
}

func (c *Consola) imprimirVmstat() {
	mem := c.planificador.Memoria()
	estado := c.planificador.VerEstado()

	tamMarco := mem.TamMarco()
	memTotal := mem.MarcosTotales() * tamMarco
	memUsada := mem.MarcosUsados() * tamMarco

	fmt.Fprintf(c.salida, "%12d B  total memory\n", memTotal)
	fmt.Fprintf(c.salida, "%12d B  used memory\n", memUsada)
	fmt.Fprintf(c.salida, "%12d B  free memory\n", memTotal-memUsada)
	fmt.Fprintln(c.salida, "------------------------------------")
	fmt.Fprintf(c.salida, "%12d   idle cpu ticks\n", estado.TicksInactivos)
	fmt.Fprintf(c.salida, "%12d   active cpu ticks\n", estado.TicksActivos)
	fmt.Fprintf(c.salida, "%12d   total cpu ticks\n", estado.TicksTotales)
	fmt.Fprintln(c.salida, "------------------------------------")
	fmt.Fprintf(c.salida, "%12d   pages paged in\n", mem.PaginadasEntrantes())
	fmt.Fprintf(c.salida, "%12d   pages paged out\n", mem.PaginadasSalientes())
}
