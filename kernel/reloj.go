package kernel

import (
	"sync/atomic"
)

// Reloj cuenta los ticks de CPU simulados. El total y los inactivos se
// actualizan con atómicos; los activos se derivan, nunca se guardan.
type Reloj struct {
	total     atomic.Int64
	inactivos atomic.Int64
}

// Tick avanza el reloj un ciclo. Si inactivo es true el mismo tick se
// cuenta también como ocioso.
func (r *Reloj) Tick(inactivo bool) {
	r.total.Add(1)
	if inactivo {
		r.inactivos.Add(1)
	}
}

// Total devuelve los ticks acumulados.
func (r *Reloj) Total() int64 {
	return r.total.Load()
}

// Inactivos devuelve los ticks ociosos acumulados.
func (r *Reloj) Inactivos() int64 {
	return r.inactivos.Load()
}

// Activos devuelve total menos inactivos.
func (r *Reloj) Activos() int64 {
	return r.Total() - r.Inactivos()
}
