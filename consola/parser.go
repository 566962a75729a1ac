package consola

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/proceso"
)

// ParsePrograma convierte el texto de screen -c en la lista de
// instrucciones del proceso. Las instrucciones se separan con ';';
// un FOR encierra su cuerpo entre corchetes:
//
//	DECLARE x 5; FOR 3 [ ADD x x 1; PRINT "x=%x%" ]; WRITE 0x40 x
//
// Cualquier instrucción malformada corta el parseo con error; nada llega
// al núcleo.
func ParsePrograma(texto string) ([]proceso.Instruccion, error) {
	sentencias, err := separarSentencias(texto)
	if err != nil {
		return nil, err
	}
	if len(sentencias) == 0 {
		return nil, fmt.Errorf("programa vacío")
	}

	instrucciones := make([]proceso.Instruccion, 0, len(sentencias))
	for _, sentencia := range sentencias {
		instr, err := parseInstruccion(sentencia)
		if err != nil {
			return nil, err
		}
		instrucciones = append(instrucciones, instr)
	}
	return instrucciones, nil
}

// separarSentencias corta por ';' de primer nivel, respetando comillas y
// corchetes de FOR.
func separarSentencias(texto string) ([]string, error) {
	var sentencias []string
	var actual strings.Builder
	profundidad := 0
	enComillas := false

	for _, r := range texto {
		switch {
		case r == '"':
			enComillas = !enComillas
			actual.WriteRune(r)
		case enComillas:
			actual.WriteRune(r)
		case r == '[':
			profundidad++
			actual.WriteRune(r)
		case r == ']':
			profundidad--
			if profundidad < 0 {
				return nil, fmt.Errorf("']' sin '[' que lo abra")
			}
			actual.WriteRune(r)
		case r == ';' && profundidad == 0:
			if s := strings.TrimSpace(actual.String()); s != "" {
				sentencias = append(sentencias, s)
			}
			actual.Reset()
		default:
			actual.WriteRune(r)
		}
	}
	if enComillas {
		return nil, fmt.Errorf("comillas sin cerrar")
	}
	if profundidad != 0 {
		return nil, fmt.Errorf("'[' sin ']' que lo cierre")
	}
	if s := strings.TrimSpace(actual.String()); s != "" {
		sentencias = append(sentencias, s)
	}
	return sentencias, nil
}

func parseInstruccion(sentencia string) (proceso.Instruccion, error) {
	var vacia proceso.Instruccion

	palabra := sentencia
	if i := strings.IndexAny(sentencia, " \t"); i != -1 {
		palabra = sentencia[:i]
	}
	resto := strings.TrimSpace(sentencia[len(palabra):])

	switch strings.ToUpper(palabra) {
	case "DECLARE":
		campos := strings.Fields(resto)
		if len(campos) != 2 {
			return vacia, fmt.Errorf("DECLARE espera: DECLARE var valor")
		}
		valor, err := parseValor(campos[1])
		if err != nil {
			return vacia, fmt.Errorf("DECLARE: %v", err)
		}
		return proceso.Instruccion{
			Tipo:      proceso.InstruccionDeclare,
			Operandos: []proceso.Operando{proceso.Variable(campos[0]), proceso.Literal(valor)},
		}, nil

	case "ADD", "SUBTRACT":
		campos := strings.Fields(resto)
		if len(campos) != 3 {
			return vacia, fmt.Errorf("%s espera: %s destino a b", palabra, palabra)
		}
		tipo := proceso.InstruccionAdd
		if strings.ToUpper(palabra) == "SUBTRACT" {
			tipo = proceso.InstruccionSubtract
		}
		a, err := parseOperando(campos[1])
		if err != nil {
			return vacia, err
		}
		b, err := parseOperando(campos[2])
		if err != nil {
			return vacia, err
		}
		return proceso.Instruccion{
			Tipo:      tipo,
			Operandos: []proceso.Operando{proceso.Variable(campos[0]), a, b},
		}, nil

	case "READ":
		campos := strings.Fields(resto)
		if len(campos) != 2 {
			return vacia, fmt.Errorf("READ espera: READ var direccion")
		}
		direccion, err := parseValor(campos[1])
		if err != nil {
			return vacia, fmt.Errorf("READ: %v", err)
		}
		return proceso.Instruccion{
			Tipo:      proceso.InstruccionRead,
			Operandos: []proceso.Operando{proceso.Variable(campos[0])},
			Direccion: direccion,
		}, nil

	case "WRITE":
		campos := strings.Fields(resto)
		if len(campos) != 2 {
			return vacia, fmt.Errorf("WRITE espera: WRITE direccion valor")
		}
		direccion, err := parseValor(campos[0])
		if err != nil {
			return vacia, fmt.Errorf("WRITE: %v", err)
		}
		operando, err := parseOperando(campos[1])
		if err != nil {
			return vacia, err
		}
		return proceso.Instruccion{
			Tipo:      proceso.InstruccionWrite,
			Operandos: []proceso.Operando{operando},
			Direccion: direccion,
		}, nil

	case "PRINT":
		return parsePrint(resto)

	case "SLEEP":
		campos := strings.Fields(resto)
		if len(campos) != 1 {
			return vacia, fmt.Errorf("SLEEP espera: SLEEP n")
		}
		n, err := parseValor(campos[0])
		if err != nil {
			return vacia, fmt.Errorf("SLEEP: %v", err)
		}
		return proceso.Instruccion{
			Tipo:      proceso.InstruccionSleep,
			Operandos: []proceso.Operando{proceso.Literal(n)},
		}, nil

	case "FOR":
		return parseFor(resto)
	}

	return vacia, fmt.Errorf("instrucción desconocida: %s", palabra)
}

// parsePrint acepta PRINT "mensaje" y PRINT "mensaje" + var; en el
// segundo caso el valor de la variable se concatena al mensaje.
func parsePrint(resto string) (proceso.Instruccion, error) {
	var vacia proceso.Instruccion

	if !strings.HasPrefix(resto, "\"") {
		return vacia, fmt.Errorf("PRINT espera un mensaje entre comillas")
	}
	cierre := strings.Index(resto[1:], "\"")
	if cierre == -1 {
		return vacia, fmt.Errorf("PRINT: comillas sin cerrar")
	}
	mensaje := resto[1 : 1+cierre]
	cola := strings.TrimSpace(resto[2+cierre:])

	instr := proceso.Instruccion{
		Tipo:    proceso.InstruccionPrint,
		Mensaje: mensaje,
	}

	if cola != "" {
		if !strings.HasPrefix(cola, "+") {
			return vacia, fmt.Errorf("PRINT: se esperaba '+ var' después del mensaje")
		}
		nombreVar := strings.TrimSpace(cola[1:])
		if nombreVar == "" || strings.ContainsAny(nombreVar, " \t") {
			return vacia, fmt.Errorf("PRINT: variable inválida tras '+'")
		}
		instr.Mensaje += "%" + nombreVar + "%"
		instr.Operandos = []proceso.Operando{proceso.Variable(nombreVar)}
	} else if marcador := extraerMarcador(mensaje); marcador != "" {
		instr.Operandos = []proceso.Operando{proceso.Variable(marcador)}
	}
	return instr, nil
}

// extraerMarcador devuelve el nombre dentro del primer %var% del mensaje.
func extraerMarcador(mensaje string) string {
	inicio := strings.Index(mensaje, "%")
	if inicio == -1 {
		return ""
	}
	fin := strings.Index(mensaje[inicio+1:], "%")
	if fin == -1 {
		return ""
	}
	return mensaje[inicio+1 : inicio+1+fin]
}

// parseFor acepta FOR n [ cuerpo ] con anidamiento arbitrario.
func parseFor(resto string) (proceso.Instruccion, error) {
	var vacia proceso.Instruccion

	apertura := strings.Index(resto, "[")
	if apertura == -1 || !strings.HasSuffix(resto, "]") {
		return vacia, fmt.Errorf("FOR espera: FOR n [ instrucciones ]")
	}
	repeticiones, err := parseValor(strings.TrimSpace(resto[:apertura]))
	if err != nil {
		return vacia, fmt.Errorf("FOR: %v", err)
	}

	cuerpoTexto := resto[apertura+1 : len(resto)-1]
	cuerpo, err := ParsePrograma(cuerpoTexto)
	if err != nil {
		return vacia, fmt.Errorf("FOR: %v", err)
	}

	return proceso.Instruccion{
		Tipo:      proceso.InstruccionFor,
		Operandos: []proceso.Operando{proceso.Literal(repeticiones)},
		Cuerpo:    cuerpo,
	}, nil
}

// parseOperando distingue literales (decimal o 0x hex) de variables.
func parseOperando(texto string) (proceso.Operando, error) {
	if texto == "" {
		return proceso.Operando{}, fmt.Errorf("operando vacío")
	}
	if texto[0] >= '0' && texto[0] <= '9' {
		valor, err := parseValor(texto)
		if err != nil {
			return proceso.Operando{}, err
		}
		return proceso.Literal(valor), nil
	}
	return proceso.Variable(texto), nil
}

// parseValor interpreta un literal de 16 bits, decimal o con prefijo 0x.
func parseValor(texto string) (uint16, error) {
	valor, err := strconv.ParseUint(texto, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("valor inválido: %s", texto)
	}
	return uint16(valor), nil
}
