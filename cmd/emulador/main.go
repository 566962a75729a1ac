package main

import (
	"os"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/consola"
	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/utils"
)

func main() {
	rutaConfig := "config.txt"
	if len(os.Args) > 1 {
		rutaConfig = os.Args[1]
	}

	// Logger provisorio hasta que initialize cargue el nivel configurado.
	archivoLog, err := utils.AbrirArchivoLog("emulador.log")
	if err != nil {
		utils.InicializarLogger("info", "emulador", os.Stderr)
	} else {
		defer archivoLog.Close()
		utils.InicializarLogger("info", "emulador", archivoLog)
	}

	os.Exit(consola.NuevaConsola(rutaConfig).Correr())
}
