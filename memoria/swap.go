package memoria

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/utils"
)

// AlmacenRespaldo es el archivo de SWAP del emulador. Cada página vive en
// un rango fijo del archivo: la página N del proceso P ocupa los bytes
// (base(P)+N)*tamMarco .. +tamMarco, donde base(P) es la suma de los
// largos de tabla de los procesos registrados antes que P. Los offsets
// son estables durante toda la vida del proceso.
type AlmacenRespaldo struct {
	archivo  *os.File
	tamMarco int
}

// NuevoAlmacenRespaldo abre el archivo de SWAP y lo trunca. El contenido
// de corridas anteriores no se conserva.
func NuevoAlmacenRespaldo(ruta string, tamMarco int) (*AlmacenRespaldo, error) {
	archivo, err := os.OpenFile(ruta, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: abriendo %s: %v", ErrSwapIO, ruta, err)
	}
	if err := archivo.Truncate(0); err != nil {
		archivo.Close()
		return nil, fmt.Errorf("%w: truncando %s: %v", ErrSwapIO, ruta, err)
	}
	return &AlmacenRespaldo{archivo: archivo, tamMarco: tamMarco}, nil
}

// EscribirPagina persiste el contenido del marco en la posición global
// paginaGlobal del archivo.
func (a *AlmacenRespaldo) EscribirPagina(fisica []byte, marco int, paginaGlobal int) error {
	inicio := marco * a.tamMarco
	offset := int64(paginaGlobal) * int64(a.tamMarco)

	if _, err := a.archivo.WriteAt(fisica[inicio:inicio+a.tamMarco], offset); err != nil {
		utils.ErrorLog.Error("Error escribiendo en SWAP", "offset", offset, "error", err)
		return fmt.Errorf("%w: escribiendo página %d: %v", ErrSwapIO, paginaGlobal, err)
	}
	return nil
}

// LeerPagina carga la posición global paginaGlobal del archivo en el
// marco destino. Una lectura más allá del final del archivo (página nunca
// escrita) rellena con ceros.
func (a *AlmacenRespaldo) LeerPagina(fisica []byte, marco int, paginaGlobal int) error {
	inicio := marco * a.tamMarco
	destino := fisica[inicio : inicio+a.tamMarco]
	offset := int64(paginaGlobal) * int64(a.tamMarco)

	n, err := a.archivo.ReadAt(destino, offset)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		utils.ErrorLog.Error("Error leyendo desde SWAP", "offset", offset, "error", err)
		return fmt.Errorf("%w: leyendo página %d: %v", ErrSwapIO, paginaGlobal, err)
	}
	for i := n; i < len(destino); i++ {
		destino[i] = 0
	}
	return nil
}

// Cerrar cierra el archivo de SWAP.
func (a *AlmacenRespaldo) Cerrar() error {
	if a.archivo == nil {
		return nil
	}
	return a.archivo.Close()
}
