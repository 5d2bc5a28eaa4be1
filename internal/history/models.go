package history

import "time"

const SchemaVersion = 1

// Snapshot is one point-in-time record of the outlined project: how many
// files were analyzed and what the symbol population looked like.
type Snapshot struct {
	SchemaVersion   int       `json:"schema_version"`
	Timestamp       time.Time `json:"timestamp"`
	CommitHash      string    `json:"commit_hash,omitempty"`
	CommitTimestamp time.Time `json:"commit_timestamp,omitempty"`
	FileCount       int       `json:"file_count"`
	SymbolCount     int       `json:"symbol_count"`
	ClassCount      int       `json:"class_count"`
	FunctionCount   int       `json:"function_count"`
	MethodCount     int       `json:"method_count"`
	VariableCount   int       `json:"variable_count"`
	ImportCount     int       `json:"import_count"`
	ErrorCount      int       `json:"error_count"` // files that failed analysis
}

type TrendPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	CommitHash    string    `json:"commit_hash,omitempty"`
	FileCount     int       `json:"file_count"`
	SymbolCount   int       `json:"symbol_count"`
	ClassCount    int       `json:"class_count"`
	FunctionCount int       `json:"function_count"`
	MethodCount   int       `json:"method_count"`
	VariableCount int       `json:"variable_count"`
	ImportCount   int       `json:"import_count"`
	ErrorCount    int       `json:"error_count"`
	DeltaFiles    int       `json:"delta_files"`
	DeltaSymbols  int       `json:"delta_symbols"`
	DeltaClasses  int       `json:"delta_classes"`
	DeltaErrors   int       `json:"delta_errors"`
	SymbolGrowthPct float64 `json:"symbol_growth_pct"`
	AvgSymbols    float64   `json:"avg_symbols"`
	AvgErrors     float64   `json:"avg_errors"`
	WindowHours   float64   `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	ScanCount     int          `json:"scan_count"`
	Points        []TrendPoint `json:"points"`
}
