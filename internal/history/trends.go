package history

import (
	"fmt"
	"math"
	"time"
)

func BuildTrendReport(snapshots []Snapshot, window time.Duration) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, fmt.Errorf("no snapshots available")
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for i, current := range snapshots {
		point := TrendPoint{
			Timestamp:     current.Timestamp,
			CommitHash:    current.CommitHash,
			FileCount:     current.FileCount,
			SymbolCount:   current.SymbolCount,
			ClassCount:    current.ClassCount,
			FunctionCount: current.FunctionCount,
			MethodCount:   current.MethodCount,
			VariableCount: current.VariableCount,
			ImportCount:   current.ImportCount,
			ErrorCount:    current.ErrorCount,
		}

		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaFiles = current.FileCount - prev.FileCount
			point.DeltaSymbols = current.SymbolCount - prev.SymbolCount
			point.DeltaClasses = current.ClassCount - prev.ClassCount
			point.DeltaErrors = current.ErrorCount - prev.ErrorCount
			if prev.SymbolCount > 0 {
				point.SymbolGrowthPct = (float64(point.DeltaSymbols) / float64(prev.SymbolCount)) * 100
			}
		}

		avgSymbols, avgErrors := movingAverages(snapshots, i, window)
		point.AvgSymbols = round2(avgSymbols)
		point.AvgErrors = round2(avgErrors)
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Since:         snapshots[0].Timestamp,
		Until:         snapshots[len(snapshots)-1].Timestamp,
		Window:        window.String(),
		ScanCount:     len(points),
		Points:        points,
	}, nil
}

func movingAverages(snapshots []Snapshot, index int, window time.Duration) (float64, float64) {
	if window <= 0 {
		return float64(snapshots[index].SymbolCount), float64(snapshots[index].ErrorCount)
	}

	cutoff := snapshots[index].Timestamp.Add(-window)
	var symbolTotal int
	var errorTotal int
	count := 0
	for i := index; i >= 0; i-- {
		if snapshots[i].Timestamp.Before(cutoff) {
			break
		}
		symbolTotal += snapshots[i].SymbolCount
		errorTotal += snapshots[i].ErrorCount
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(symbolTotal) / float64(count), float64(errorTotal) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
