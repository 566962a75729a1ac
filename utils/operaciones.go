package utils

import (
	"sync/atomic"
	"time"
)

var sumidero atomic.Int64

// AplicarRetardoOcupado consume tiempo de CPU con un bucle trivial.
// Es el knob delays-per-exec: regula la velocidad de la simulación,
// no sincroniza nada. El acumulador impide que el bucle se elimine.
func AplicarRetardoOcupado(iteraciones int) {
	acum := 0
	for i := 0; i < iteraciones; i++ {
		acum += i
	}
	sumidero.Store(int64(acum))
}

// AplicarRetardo aplica un retardo simulado en milisegundos.
func AplicarRetardo(duracionMs int) {
	if duracionMs <= 0 {
		return
	}
	time.Sleep(time.Duration(duracionMs) * time.Millisecond)
}

// Timestamp formatea una hora como en los reportes del emulador:
// MM/DD/YYYY, hh:mm:ss AM.
func Timestamp(t time.Time) string {
	return t.Format("01/02/2006, 03:04:05 PM")
}
