package pipeline

import (
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	healthdata "github.com/h3x89/Apple-Health-Data-Analyzer"
)

type ledgerParquetRow struct {
	Date            string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	CorrectedSteps  int64   `parquet:"name=corrected_steps, type=INT64"`
	EnergyKcal      float64 `parquet:"name=total_energy_kcal, type=DOUBLE"`
	ElevationGainM  float64 `parquet:"name=elevation_gain_m, type=DOUBLE"`
	WorkoutCount    int64   `parquet:"name=workout_count, type=INT64"`
	CyclingM        float64 `parquet:"name=distance_cycling_m, type=DOUBLE"`
	SkatingM        float64 `parquet:"name=distance_skating_m, type=DOUBLE"`
	HikingM         float64 `parquet:"name=distance_hiking_m, type=DOUBLE"`
	RunningM        float64 `parquet:"name=distance_running_m, type=DOUBLE"`
	WalkingM        float64 `parquet:"name=distance_walking_m, type=DOUBLE"`
	OtherM          float64 `parquet:"name=distance_other_m, type=DOUBLE"`
}

func writeLedgerParquet(path string, entries []healthdata.DailyLedgerEntry) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(ledgerParquetRow), 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, e := range entries {
		row := ledgerParquetRow{
			Date:           e.Date,
			CorrectedSteps: e.CorrectedSteps,
			EnergyKcal:     e.TotalEnergyKcal,
			ElevationGainM: e.ElevationGainM,
			WorkoutCount:   int64(e.WorkoutCount),
			CyclingM:       e.DistanceByActivity[healthdata.ActivityCycling],
			SkatingM:       e.DistanceByActivity[healthdata.ActivitySkating],
			HikingM:        e.DistanceByActivity[healthdata.ActivityHiking],
			RunningM:       e.DistanceByActivity[healthdata.ActivityRunning],
			WalkingM:       e.DistanceByActivity[healthdata.ActivityWalking],
			OtherM:         e.DistanceByActivity[healthdata.ActivityOther],
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}
