package kernel

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/proceso"
	"github.com/sisoputnfrba/tp-2025-2c-LosPaginadores/utils"
)

// EstadoPlanificador es el snapshot de utilización para la consola y los
// reportes.
type EstadoPlanificador struct {
	NucleosTotales     int
	NucleosUsados      int
	NucleosDisponibles int
	TicksTotales       int64
	TicksInactivos     int64
	TicksActivos       int64
	Algoritmo          string
}

// VerEstado devuelve la utilización actual de CPU y el reloj.
func (pl *Planificador) VerEstado() EstadoPlanificador {
	usados := pl.NucleosUsados()
	return EstadoPlanificador{
		NucleosTotales:     pl.config.NumCPUs,
		NucleosUsados:      usados,
		NucleosDisponibles: pl.config.NumCPUs,
		TicksTotales:       pl.reloj.Total(),
		TicksInactivos:     pl.reloj.Inactivos(),
		TicksActivos:       pl.reloj.Activos(),
		Algoritmo:          pl.config.Algoritmo,
	}
}

const separadorReporte = "--------------------------------------------------------------------------------"

// GenerarReporteUtilizacion escribe el reporte de utilización en ruta:
// utilización de CPU, cores usados y disponibles, y las secciones de
// procesos en ejecución y terminados ordenadas por hora de creación.
func (pl *Planificador) GenerarReporteUtilizacion(ruta string) error {
	snapshots := pl.Procesos()
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].HoraCreacion.Before(snapshots[j].HoraCreacion)
	})

	var enEjecucion, terminados []proceso.Snapshot
	for _, s := range snapshots {
		if s.Finalizado {
			terminados = append(terminados, s)
		} else {
			enEjecucion = append(enEjecucion, s)
		}
	}

	estado := pl.VerEstado()
	utilizacion := 0
	if estado.NucleosDisponibles > 0 {
		utilizacion = estado.NucleosUsados * 100 / estado.NucleosDisponibles
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CPU utilization: %d%%\n", utilizacion)
	fmt.Fprintf(&b, "Cores used: %d\n", estado.NucleosUsados)
	fmt.Fprintf(&b, "Cores available: %d\n", estado.NucleosDisponibles)
	b.WriteString(separadorReporte + "\n")

	b.WriteString("Running processes:\n")
	if len(enEjecucion) == 0 {
		b.WriteString(" (None)\n")
	}
	for _, s := range enEjecucion {
		fmt.Fprintf(&b, "%-10s (%s)", s.Nombre, utils.Timestamp(s.HoraCreacion))
		if s.Nucleo != -1 {
			fmt.Fprintf(&b, "\tCore: %d", s.Nucleo)
		}
		fmt.Fprintf(&b, "\t%d / %d\n", s.PC, s.Total)
	}

	b.WriteString("\nFinished processes:\n")
	if len(terminados) == 0 {
		b.WriteString(" (None)\n")
	}
	for _, s := range terminados {
		fmt.Fprintf(&b, "%-10s (%s)\tFinished\t%d / %d\n",
			s.Nombre, utils.Timestamp(s.HoraFin), s.PC, s.Total)
	}
	b.WriteString(separadorReporte + "\n")

	if err := os.WriteFile(ruta, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("escribiendo reporte en %s: %w", ruta, err)
	}

	utils.InfoLog.Info("Reporte de utilización generado",
		"ruta", ruta,
		"en_ejecucion", len(enEjecucion),
		"terminados", len(terminados))
	return nil
}
