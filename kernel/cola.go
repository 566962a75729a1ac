package kernel

import (
	"sync"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/proceso"
)

// ColaListos es la cola FIFO de procesos listos. Los productores nunca
// bloquean; los consumidores esperan en el monitor hasta que haya un
// proceso o la cola se cierre. Cada Encolar despierta a un consumidor;
// Cerrar los despierta a todos.
type ColaListos struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []*proceso.Proceso
	cerrada bool
}

// NuevaColaListos construye la cola vacía.
func NuevaColaListos() *ColaListos {
	c := &ColaListos{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Encolar agrega un proceso al final de la cola.
func (c *ColaListos) Encolar(p *proceso.Proceso) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cerrada {
		return
	}
	c.items = append(c.items, p)
	c.cond.Signal()
}

// Desencolar saca el primer proceso de la cola, bloqueando hasta que haya
// uno. Devuelve (nil, false) cuando la cola fue cerrada.
func (c *ColaListos) Desencolar() (*proceso.Proceso, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.items) == 0 && !c.cerrada {
		c.cond.Wait()
	}
	if c.cerrada {
		return nil, false
	}

	p := c.items[0]
	c.items = c.items[1:]
	return p, true
}

// Tamanio devuelve el largo actual sin bloquear al llamador más allá del
// mutex. Se usa para detectar ociosidad.
func (c *ColaListos) Tamanio() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Cerrar despierta a todos los consumidores para que salgan.
func (c *ColaListos) Cerrar() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cerrada = true
	c.cond.Broadcast()
}
