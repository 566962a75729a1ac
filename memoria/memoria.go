package memoria

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/utils"
)

// Marco es un slot de memoria física.
type Marco struct {
	Asignado bool
	Proceso  string
	Pagina   int
	Sucio    bool
}

// EntradaPagina es la entrada de tabla de páginas de un proceso.
type EntradaPagina struct {
	Marco  int // -1 si la página no está residente
	Valida bool
	Sucia  bool
}

// registroProceso es el estado de paginación de un proceso registrado.
type registroProceso struct {
	tabla []EntradaPagina
	base  int // prefijo en páginas dentro del archivo de SWAP
	bytes int
}

// Memoria administra la tabla de marcos, la lista de marcos libres y las
// tablas de páginas por proceso, con reemplazo FIFO por índice. Toda la
// estructura opera bajo un único mutex: el objetivo es la correctitud de
// la máquina de estados de paginación, no la escala.
type Memoria struct {
	mu sync.Mutex

	tamTotal int
	tamMarco int

	fisica []byte
	marcos []Marco
	libres []int // FIFO de índices de marcos sin asignar

	// El cursor de víctima avanza por todos los marcos sin importar si
	// están libres o asignados. Arranca en -1.
	ultimaVictima int

	procesos    map[string]*registroProceso
	proximaBase int

	swap *AlmacenRespaldo

	paginadasEntrantes atomic.Int64
	paginadasSalientes atomic.Int64
}

// NuevaMemoria construye el administrador con tamTotal bytes de memoria
// física en marcos de tamMarco bytes, respaldado por el archivo rutaSwap
// (que se trunca).
func NuevaMemoria(tamTotal, tamMarco int, rutaSwap string) (*Memoria, error) {
	if tamMarco <= 0 {
		tamMarco = 1
	}
	swap, err := NuevoAlmacenRespaldo(rutaSwap, tamMarco)
	if err != nil {
		return nil, err
	}

	cantMarcos := tamTotal / tamMarco
	m := &Memoria{
		tamTotal:      tamTotal,
		tamMarco:      tamMarco,
		fisica:        make([]byte, cantMarcos*tamMarco),
		marcos:        make([]Marco, cantMarcos),
		libres:        make([]int, 0, cantMarcos),
		ultimaVictima: -1,
		procesos:      make(map[string]*registroProceso),
		swap:          swap,
	}
	for i := range m.marcos {
		m.marcos[i].Pagina = -1
		m.libres = append(m.libres, i)
	}

	utils.InfoLog.Info("Memoria inicializada",
		"tam_total", tamTotal, "tam_marco", tamMarco, "marcos", cantMarcos)
	return m, nil
}

// RegistrarProceso crea la tabla de páginas vacía del proceso. No asigna
// marcos: todo es por demanda.
func (m *Memoria) RegistrarProceso(nombre string, bytesVirtuales int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, existe := m.procesos[nombre]; existe {
		return fmt.Errorf("%w: %s", ErrNombreDuplicado, nombre)
	}

	numPaginas := (bytesVirtuales + m.tamMarco - 1) / m.tamMarco
	tabla := make([]EntradaPagina, numPaginas)
	for i := range tabla {
		tabla[i].Marco = -1
	}

	m.procesos[nombre] = &registroProceso{
		tabla: tabla,
		base:  m.proximaBase,
		bytes: bytesVirtuales,
	}
	m.proximaBase += numPaginas

	utils.InfoLog.Info("Proceso registrado en memoria",
		"proceso", nombre, "bytes", bytesVirtuales, "paginas", numPaginas)
	return nil
}

// LiberarProceso devuelve todos los marcos residentes del proceso a la
// lista de libres y elimina su tabla de páginas. Es idempotente.
func (m *Memoria) LiberarProceso(nombre string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, existe := m.procesos[nombre]
	if !existe {
		return
	}

	liberados := 0
	for i := range reg.tabla {
		pte := &reg.tabla[i]
		if !pte.Valida {
			continue
		}
		marco := &m.marcos[pte.Marco]
		marco.Asignado = false
		marco.Proceso = ""
		marco.Pagina = -1
		marco.Sucio = false
		m.libres = append(m.libres, pte.Marco)
		liberados++
	}
	delete(m.procesos, nombre)

	utils.InfoLog.Info("Memoria del proceso liberada",
		"proceso", nombre, "marcos_liberados", liberados)
}

// Leer devuelve el valor de 16 bits en la dirección lógica del proceso.
func (m *Memoria) Leer(nombre string, dir uint16) (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, err := m.ubicar(nombre, dir)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.fisica[pos : pos+2]), nil
}

// Escribir almacena un valor de 16 bits en la dirección lógica del
// proceso y marca la página y el marco como sucios.
func (m *Memoria) Escribir(nombre string, dir uint16, valor uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, err := m.ubicar(nombre, dir)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.fisica[pos:pos+2], valor)

	reg := m.procesos[nombre]
	pagina := int(dir) / m.tamMarco
	reg.tabla[pagina].Sucia = true
	m.marcos[reg.tabla[pagina].Marco].Sucio = true
	return nil
}

// ubicar traduce una dirección lógica a la posición física del valor,
// resolviendo el fallo de página si hace falta. Requiere m.mu tomado.
func (m *Memoria) ubicar(nombre string, dir uint16) (int, error) {
	reg, existe := m.procesos[nombre]
	if !existe {
		return 0, ViolacionAcceso{Direccion: dir}
	}

	pagina := int(dir) / m.tamMarco
	if pagina >= len(reg.tabla) {
		return 0, ViolacionAcceso{Direccion: dir}
	}

	pte := &reg.tabla[pagina]
	if !pte.Valida {
		if err := m.atenderFallo(nombre, reg, pagina); err != nil {
			return 0, err
		}
	}

	// Los valores son celdas de 16 bits alineadas: el byte impar accede
	// a la misma celda que su par anterior.
	desplaz := (int(dir) % m.tamMarco) &^ 1
	return pte.Marco*m.tamMarco + desplaz, nil
}

// atenderFallo carga la página en un marco: toma la cabeza de la lista de
// libres o, si no hay, la próxima víctima del cursor FIFO global. La
// víctima se elige sin mirar si está sucia o libre.
func (m *Memoria) atenderFallo(nombre string, reg *registroProceso, pagina int) error {
	var marco int
	if len(m.libres) > 0 {
		marco = m.libres[0]
		m.libres = m.libres[1:]
	} else {
		m.ultimaVictima = (m.ultimaVictima + 1) % len(m.marcos)
		marco = m.ultimaVictima

		victima := &m.marcos[marco]
		if victima.Asignado {
			duenio := m.procesos[victima.Proceso]
			if victima.Sucio && duenio != nil {
				if err := m.swap.EscribirPagina(m.fisica, marco, duenio.base+victima.Pagina); err != nil {
					return err
				}
				m.paginadasSalientes.Add(1)
				utils.InfoLog.Info(fmt.Sprintf("## %s - Página %d bajada a SWAP - Marco: %d",
					victima.Proceso, victima.Pagina, marco))
			}
			if duenio != nil {
				vieja := &duenio.tabla[victima.Pagina]
				vieja.Valida = false
				vieja.Marco = -1
				vieja.Sucia = false
			}
		}
	}

	if err := m.swap.LeerPagina(m.fisica, marco, reg.base+pagina); err != nil {
		return err
	}
	m.paginadasEntrantes.Add(1)

	f := &m.marcos[marco]
	f.Asignado = true
	f.Proceso = nombre
	f.Pagina = pagina
	f.Sucio = false

	pte := &reg.tabla[pagina]
	pte.Marco = marco
	pte.Valida = true
	pte.Sucia = false

	utils.InfoLog.Info(fmt.Sprintf("## %s - Página %d subida a memoria - Marco: %d",
		nombre, pagina, marco))
	return nil
}

// PaginadasEntrantes devuelve el total de páginas cargadas desde SWAP.
func (m *Memoria) PaginadasEntrantes() int {
	return int(m.paginadasEntrantes.Load())
}

// PaginadasSalientes devuelve el total de páginas escritas a SWAP.
func (m *Memoria) PaginadasSalientes() int {
	return int(m.paginadasSalientes.Load())
}

// MarcosTotales devuelve la cantidad de marcos físicos.
func (m *Memoria) MarcosTotales() int {
	return len(m.marcos)
}

// MarcosUsados cuenta los marcos asignados.
func (m *Memoria) MarcosUsados() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	usados := 0
	for i := range m.marcos {
		if m.marcos[i].Asignado {
			usados++
		}
	}
	return usados
}

// BytesTotales devuelve el tamaño de la memoria física en bytes.
func (m *Memoria) BytesTotales() int {
	return m.tamTotal
}

// TamMarco devuelve el tamaño de marco en bytes.
func (m *Memoria) TamMarco() int {
	return m.tamMarco
}

// ResidenteDe devuelve los bytes residentes del proceso (páginas válidas
// por tamaño de marco). Cero si el proceso no está registrado.
func (m *Memoria) ResidenteDe(nombre string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, existe := m.procesos[nombre]
	if !existe {
		return 0
	}
	residentes := 0
	for i := range reg.tabla {
		if reg.tabla[i].Valida {
			residentes++
		}
	}
	return residentes * m.tamMarco
}

// VirtualDe devuelve el tamaño virtual configurado del proceso, o cero si
// no está registrado.
func (m *Memoria) VirtualDe(nombre string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if reg, existe := m.procesos[nombre]; existe {
		return reg.bytes
	}
	return 0
}

// MarcosLibres devuelve el largo actual de la lista de libres.
func (m *Memoria) MarcosLibres() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.libres)
}

// SnapshotMarcos devuelve una copia de la tabla de marcos para los
// reportes de consola.
func (m *Memoria) SnapshotMarcos() []Marco {
	m.mu.Lock()
	defer m.mu.Unlock()

	copia := make([]Marco, len(m.marcos))
	copy(copia, m.marcos)
	return copia
}

// LiberarTodos libera todos los procesos registrados. Se usa en el
// apagado para que no queden marcos colgados.
func (m *Memoria) LiberarTodos() {
	m.mu.Lock()
	nombres := make([]string, 0, len(m.procesos))
	for nombre := range m.procesos {
		nombres = append(nombres, nombre)
	}
	m.mu.Unlock()

	for _, nombre := range nombres {
		m.LiberarProceso(nombre)
	}
}

// Cerrar cierra el archivo de respaldo.
func (m *Memoria) Cerrar() error {
	return m.swap.Cerrar()
}
