package memoria

import (
	"errors"
	"fmt"
)

var (
	// ErrNombreDuplicado indica que ya existe un proceso registrado con ese nombre.
	ErrNombreDuplicado = errors.New("nombre de proceso duplicado")

	// ErrTamanioInvalido indica un tamaño de memoria virtual fuera de los límites
	// configurados o que no es potencia de dos.
	ErrTamanioInvalido = errors.New("tamaño de memoria inválido")

	// ErrSwapIO envuelve fallas de E/S sobre el archivo de respaldo. Son fatales.
	ErrSwapIO = errors.New("error de E/S en el archivo de respaldo")
)

// ViolacionAcceso es una dirección lógica fuera del espacio del proceso.
// Termina únicamente al proceso que la provocó.
type ViolacionAcceso struct {
	Direccion uint16
}

func (v ViolacionAcceso) Error() string {
	return fmt.Sprintf("violación de acceso en la dirección 0x%X", v.Direccion)
}
