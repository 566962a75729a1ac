package kernel

import (
	"sync"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/proceso"
)

// RegistroProcesos guarda todos los procesos creados, vivos o terminados,
// en orden de creación. El planificador es su único dueño; la consola lo
// consulta a través de snapshots.
type RegistroProcesos struct {
	mu       sync.RWMutex
	procesos map[string]*proceso.Proceso
	orden    []*proceso.Proceso
}

// NuevoRegistroProcesos construye un registro vacío.
func NuevoRegistroProcesos() *RegistroProcesos {
	return &RegistroProcesos{
		procesos: make(map[string]*proceso.Proceso),
	}
}

// Registrar agrega un proceso. Devuelve false si el nombre ya existe.
func (r *RegistroProcesos) Registrar(p *proceso.Proceso) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, existe := r.procesos[p.Nombre()]; existe {
		return false
	}
	r.procesos[p.Nombre()] = p
	r.orden = append(r.orden, p)
	return true
}

// Existe informa si hay un proceso con ese nombre.
func (r *RegistroProcesos) Existe(nombre string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, existe := r.procesos[nombre]
	return existe
}

// Obtener devuelve el proceso por nombre.
func (r *RegistroProcesos) Obtener(nombre string) (*proceso.Proceso, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, existe := r.procesos[nombre]
	return p, existe
}

// Todos devuelve los procesos en orden de creación.
func (r *RegistroProcesos) Todos() []*proceso.Proceso {
	r.mu.RLock()
	defer r.mu.RUnlock()
	copia := make([]*proceso.Proceso, len(r.orden))
	copy(copia, r.orden)
	return copia
}
