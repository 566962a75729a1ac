package proceso

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/memoria"
	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/utils"
)

// AccesoMemoria es la vista que el ejecutor tiene del administrador de
// memoria: lecturas y escrituras de 16 bits en direcciones lógicas.
type AccesoMemoria interface {
	Leer(nombre string, dir uint16) (uint16, error)
	Escribir(nombre string, dir uint16, valor uint16) error
}

const (
	// La tabla de símbolos ocupa los primeros 64 bytes del espacio del
	// proceso: 32 variables de 2 bytes a partir de la dirección 0.
	maxVariables     = 32
	finTablaSimbolos = 64

	maxLineasSalida = 4096
)

// Proceso es un proceso simulado: su programa, su contador, su tabla de
// símbolos y su log de salida. Los valores de las variables viven en su
// espacio lógico paginado, no en el objeto; el mapa guarda solo
// nombre → offset.
type Proceso struct {
	mu sync.Mutex

	nombre        string
	instrucciones []Instruccion
	pc            int

	horaCreacion time.Time
	horaFin      time.Time

	nucleo      int
	enEjecucion bool

	tamVirtual      int
	variables       map[string]uint16
	proximoOffset   uint16
	retardoPorInstr int

	violacion     bool
	dirViolacion  uint16
	horaViolacion time.Time

	salida []string

	memoria AccesoMemoria
}

// Snapshot es la vista de solo lectura que consume la consola.
type Snapshot struct {
	Nombre        string
	PC            int
	Total         int
	Nucleo        int
	EnEjecucion   bool
	Finalizado    bool
	Violacion     bool
	DirViolacion  uint16
	HoraCreacion  time.Time
	HoraFin       time.Time
	HoraViolacion time.Time
	TamVirtual    int
}

// NuevoProceso construye un proceso listo para encolar.
func NuevoProceso(nombre string, tamVirtual int, instrucciones []Instruccion, mem AccesoMemoria, retardoPorInstr int) *Proceso {
	return &Proceso{
		nombre:          nombre,
		instrucciones:   instrucciones,
		horaCreacion:    time.Now(),
		nucleo:          -1,
		tamVirtual:      tamVirtual,
		variables:       make(map[string]uint16),
		retardoPorInstr: retardoPorInstr,
		memoria:         mem,
	}
}

// Nombre devuelve el nombre único del proceso.
func (p *Proceso) Nombre() string {
	return p.nombre
}

// TamVirtual devuelve el tamaño virtual configurado en bytes.
func (p *Proceso) TamVirtual() int {
	return p.tamVirtual
}

// Finalizado informa si el proceso llegó al final de su programa o fue
// terminado por una violación de acceso. Ambos estados son absorbentes.
func (p *Proceso) Finalizado() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finalizadoLocked()
}

func (p *Proceso) finalizadoLocked() bool {
	return p.pc >= len(p.instrucciones) || p.violacion
}

// Violado informa si el proceso terminó por violación de acceso.
func (p *Proceso) Violado() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.violacion
}

// FijarNucleo asigna el core en el que ejecuta (-1 si ninguno).
func (p *Proceso) FijarNucleo(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nucleo = id
}

// FijarEnEjecucion marca o desmarca el flag de ejecución.
func (p *Proceso) FijarEnEjecucion(valor bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enEjecucion = valor
}

// Salida devuelve una copia del log de salida del proceso.
func (p *Proceso) Salida() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	copia := make([]string, len(p.salida))
	copy(copia, p.salida)
	return copia
}

// VerSnapshot devuelve una vista consistente del estado del proceso.
func (p *Proceso) VerSnapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Nombre:        p.nombre,
		PC:            p.pc,
		Total:         len(p.instrucciones),
		Nucleo:        p.nucleo,
		EnEjecucion:   p.enEjecucion,
		Finalizado:    p.finalizadoLocked(),
		Violacion:     p.violacion,
		DirViolacion:  p.dirViolacion,
		HoraCreacion:  p.horaCreacion,
		HoraFin:       p.horaFin,
		HoraViolacion: p.horaViolacion,
		TamVirtual:    p.tamVirtual,
	}
}

// Ejecutar corre hasta quantum instrucciones de primer nivel, o hasta
// terminar si quantum es -1. Un FOR cuenta como una sola instrucción de
// primer nivel sin importar el largo de su cuerpo. Una violación de
// acceso termina el proceso y no es error; un error devuelto es una
// falla fatal del respaldo que el planificador debe tratar apagándose.
func (p *Proceso) Ejecutar(quantum int) error {
	if p.Finalizado() {
		return nil
	}

	p.mu.Lock()
	restantes := len(p.instrucciones) - p.pc
	p.mu.Unlock()
	if quantum >= 0 && quantum < restantes {
		restantes = quantum
	}

	for i := 0; i < restantes; i++ {
		p.mu.Lock()
		if p.finalizadoLocked() {
			p.mu.Unlock()
			break
		}
		instr := p.instrucciones[p.pc]
		p.mu.Unlock()

		if err := p.ejecutarLista([]Instruccion{instr}); err != nil {
			return err
		}

		p.mu.Lock()
		if p.violacion {
			p.mu.Unlock()
			break
		}
		p.pc++
		p.mu.Unlock()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalizadoLocked() && p.horaFin.IsZero() {
		p.horaFin = time.Now()
	}
	return nil
}

func (p *Proceso) ejecutarLista(lista []Instruccion) error {
	for i := range lista {
		if p.Violado() {
			return nil
		}
		instr := &lista[i]

		utils.AplicarRetardoOcupado(p.retardoPorInstr)

		switch instr.Tipo {
		case InstruccionDeclare:
			if p.puedeDeclarar() {
				valor, err := p.resolver(instr.Operandos[1])
				if err != nil {
					return err
				}
				if err := p.fijarVariable(instr.Operandos[0].Variable, valor); err != nil {
					return err
				}
			}

		case InstruccionAdd, InstruccionSubtract:
			a, err := p.resolver(instr.Operandos[1])
			if err != nil {
				return err
			}
			b, err := p.resolver(instr.Operandos[2])
			if err != nil {
				return err
			}
			resultado := a + b
			if instr.Tipo == InstruccionSubtract {
				resultado = a - b
			}
			if err := p.fijarVariable(instr.Operandos[0].Variable, resultado); err != nil {
				return err
			}

		case InstruccionPrint:
			if err := p.imprimir(instr); err != nil {
				return err
			}

		case InstruccionRead:
			valor, err := p.memoria.Leer(p.nombre, instr.Direccion)
			if err != nil {
				return p.manejarErrorMemoria(err)
			}
			nombreVar := instr.Operandos[0].Variable
			if p.existeVariable(nombreVar) || p.puedeDeclarar() {
				if err := p.fijarVariable(nombreVar, valor); err != nil {
					return err
				}
			}

		case InstruccionWrite:
			valor, err := p.resolver(instr.Operandos[0])
			if err != nil {
				return err
			}
			if p.Violado() {
				return nil
			}
			if err := p.memoria.Escribir(p.nombre, instr.Direccion, valor); err != nil {
				return p.manejarErrorMemoria(err)
			}

		case InstruccionSleep:
			duracion, err := p.resolver(instr.Operandos[0])
			if err != nil {
				return err
			}
			utils.AplicarRetardo(int(duracion))

		case InstruccionFor:
			repeticiones, err := p.resolver(instr.Operandos[0])
			if err != nil {
				return err
			}
			for j := uint16(0); j < repeticiones; j++ {
				if p.Violado() {
					break
				}
				if err := p.ejecutarLista(instr.Cuerpo); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// imprimir formatea el mensaje, sustituye %var% por su valor actual y lo
// agrega al log de salida con timestamp y core.
func (p *Proceso) imprimir(instr *Instruccion) error {
	mensaje := instr.Mensaje
	if len(instr.Operandos) > 0 && instr.Operandos[0].EsVariable {
		marcador := "%" + instr.Operandos[0].Variable + "%"
		if strings.Contains(mensaje, marcador) {
			valor, err := p.resolver(instr.Operandos[0])
			if err != nil {
				return err
			}
			if p.Violado() {
				return nil
			}
			mensaje = strings.Replace(mensaje, marcador, fmt.Sprintf("%d", valor), 1)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	linea := fmt.Sprintf("(%s) Core:%d \"%s\"", utils.Timestamp(time.Now()), p.nucleo, mensaje)
	if len(p.salida) >= maxLineasSalida {
		p.salida = p.salida[1:]
	}
	p.salida = append(p.salida, linea)
	return nil
}

// resolver devuelve el valor de un operando: los literales valen por sí
// mismos; las variables se leen de la memoria paginada a través de su
// offset en la tabla de símbolos. Una variable desconocida vale 0.
func (p *Proceso) resolver(op Operando) (uint16, error) {
	if !op.EsVariable {
		return op.Valor, nil
	}

	if err := p.asegurarTablaSimbolos(); err != nil {
		return 0, err
	}
	if p.Violado() {
		return 0, nil
	}

	p.mu.Lock()
	offset, existe := p.variables[op.Variable]
	p.mu.Unlock()
	if !existe {
		return 0, nil
	}

	valor, err := p.memoria.Leer(p.nombre, offset)
	if err != nil {
		return 0, p.manejarErrorMemoria(err)
	}
	return valor, nil
}

// fijarVariable escribe el valor en el offset de la variable, declarando
// el próximo slot de 2 bytes si es nueva. Con la tabla llena la
// declaración se descarta en silencio.
func (p *Proceso) fijarVariable(nombreVar string, valor uint16) error {
	if err := p.asegurarTablaSimbolos(); err != nil {
		return err
	}
	if p.Violado() {
		return nil
	}

	p.mu.Lock()
	offset, existe := p.variables[nombreVar]
	if !existe {
		if p.proximoOffset >= finTablaSimbolos {
			p.mu.Unlock()
			return nil
		}
		offset = p.proximoOffset
		p.variables[nombreVar] = offset
		p.proximoOffset += 2
	}
	p.mu.Unlock()

	if err := p.memoria.Escribir(p.nombre, offset, valor); err != nil {
		return p.manejarErrorMemoria(err)
	}
	return nil
}

func (p *Proceso) puedeDeclarar() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.variables) < maxVariables
}

func (p *Proceso) existeVariable(nombreVar string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, existe := p.variables[nombreVar]
	return existe
}

// asegurarTablaSimbolos fuerza la residencia de la página que contiene la
// dirección 0 leyéndola; el fallo de página resultante la trae a memoria.
func (p *Proceso) asegurarTablaSimbolos() error {
	if p.Violado() {
		return nil
	}
	if _, err := p.memoria.Leer(p.nombre, 0x0); err != nil {
		return p.manejarErrorMemoria(err)
	}
	return nil
}

// manejarErrorMemoria separa las dos clases de error del administrador:
// una ViolacionAcceso termina este proceso y se absorbe acá; cualquier
// otro error es una falla de E/S del respaldo y sube hasta el
// planificador, que apaga el sistema.
func (p *Proceso) manejarErrorMemoria(err error) error {
	var viol memoria.ViolacionAcceso
	if errors.As(err, &viol) {
		p.registrarViolacion(viol.Direccion)
		return nil
	}
	return err
}

// registrarViolacion deja el registro de la violación y termina el
// proceso. La hora de fin se fija una sola vez.
func (p *Proceso) registrarViolacion(dir uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.violacion {
		return
	}
	ahora := time.Now()
	p.violacion = true
	p.dirViolacion = dir
	p.horaViolacion = ahora
	if p.horaFin.IsZero() {
		p.horaFin = ahora
	}
	p.enEjecucion = false

	utils.InfoLog.Info(fmt.Sprintf("## %s - Violación de acceso - Dirección: 0x%X", p.nombre, dir))
}
