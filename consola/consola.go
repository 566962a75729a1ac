package consola

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/kernel"
	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/memoria"
	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/utils"
)

const (
	colorVerde = "\033[38;2;180;180;180m"
	colorRojo  = "\033[38;2;240;128;128m"
	colorAzul  = "\033[38;5;37m"
	colorReset = "\033[0m"
)

const banner = `
   _______  _______  ______    _______  _______  _______  ___   _______  ______
  |       ||       ||    _ |  |       ||       ||       ||   | |       ||    _ |
  |    ___||   _   ||   | ||  |    ___||  _____||   _   ||   | |   _   ||   | ||
  |   | __ |  | |  ||   |_||_ |   |___ | |_____ |  | |  ||   | |  | |  ||   |_||_
  |   ||  ||  |_|  ||    __  ||    ___||_____  ||  |_|  ||   | |  |_|  ||    __  |
  |   |_| ||       ||   |  | ||   |___  _____| ||       ||   | |       ||   |  | |
  |_______||_______||___|  |_||_______||_______||_______||___| |_______||___|  |_|
`

// Consola es la interfaz de línea de comandos del emulador. Traduce los
// comandos del usuario a llamadas al núcleo y los errores del núcleo a
// mensajes.
type Consola struct {
	planificador *kernel.Planificador
	mem          *memoria.Memoria
	rutaConfig   string
	entrada      *bufio.Scanner
	salida       *os.File
}

// NuevaConsola arma la consola sobre stdin/stdout.
func NuevaConsola(rutaConfig string) *Consola {
	return &Consola{
		rutaConfig: rutaConfig,
		entrada:    bufio.NewScanner(os.Stdin),
		salida:     os.Stdout,
	}
}

// Correr imprime el banner y atiende comandos hasta exit. Devuelve el
// código de salida del proceso.
func (c *Consola) Correr() int {
	c.imprimirBanner()

	for {
		fmt.Fprint(c.salida, "root:\\> ")
		if !c.entrada.Scan() {
			break
		}
		linea := strings.TrimSpace(c.entrada.Text())
		if linea == "" {
			continue
		}
		if linea == "exit" {
			break
		}
		c.ejecutarComando(linea)
	}

	c.apagar()
	return 0
}

func (c *Consola) apagar() {
	if c.planificador != nil {
		fmt.Fprintln(c.salida, "Shutting down scheduler...")
		c.planificador.DetenerGeneracion()
		c.planificador.Detener()
		c.mem.Cerrar()
		fmt.Fprintln(c.salida, "Scheduler has finished joining all its threads.")
	}
}

func (c *Consola) imprimirBanner() {
	fmt.Fprint(c.salida, colorAzul, banner, colorReset)
	fmt.Fprint(c.salida, colorVerde,
		"\n================================ EMULADOR DE SO EN GO =========================\n",
		colorReset)
	fmt.Fprint(c.salida, colorRojo,
		"\nType 'exit' to exit, 'help' for help in commands, 'clear' to clear the screen.\n\n",
		colorReset)
}

// inicializar carga la configuración, construye la memoria y arranca el
// planificador. Es el comando initialize.
func (c *Consola) inicializar() {
	if c.planificador != nil {
		fmt.Fprintln(c.salida, "Already initialized.")
		return
	}

	config := kernel.CargarConfig(c.rutaConfig)

	archivoLog, err := utils.AbrirArchivoLog("emulador.log")
	if err == nil {
		utils.InicializarLogger(config.NivelLog, "emulador", archivoLog)
	}

	mem, err := memoria.NuevaMemoria(config.MemoriaTotal, config.TamMarco, config.RutaSwap)
	if err != nil {
		fmt.Fprintf(c.salida, "Failed to initialize memory: %v\n", err)
		return
	}

	c.mem = mem
	c.planificador = kernel.NuevoPlanificador(config, mem)
	c.planificador.Iniciar()
	fmt.Fprintln(c.salida, "Initialized. Configuration loaded from", c.rutaConfig)
}

func (c *Consola) limpiarPantalla() {
	fmt.Fprint(c.salida, "\033[2J\033[H")
	c.imprimirBanner()
}

func (c *Consola) imprimirAyuda() {
	fmt.Fprint(c.salida, `Available commands:
  initialize                         : Load config and start the scheduler.
  screen -s <name> <size>            : Create a process with a generated program.
  screen -c <name> <size> "<instrs>" : Create a process with custom instructions.
  screen -r <name>                   : Attach to a process screen.
  screen -ls                         : List all processes and their status.
  scheduler-start                    : Start automatic process generation.
  scheduler-stop                     : Stop automatic process generation.
  process-smi                        : View memory and process summary.
  vmstat                             : View virtual memory statistics.
  memory-stamp                       : Save the frame table to memory_stamp_<cycle>.txt.
  report-util                        : Save the utilization report to csopesy-log.txt.
  clear                              : Clear the screen.
  exit                               : Quit the emulator.
`)
}
