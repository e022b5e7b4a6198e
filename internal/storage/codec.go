package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"brainzzz/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Versioned returns the record header written by this build.
func Versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeBrain(b model.BrainRecord) ([]byte, error) {
	return json.Marshal(b)
}

func DecodeBrain(data []byte) (model.BrainRecord, error) {
	var brain model.BrainRecord
	if err := json.Unmarshal(data, &brain); err != nil {
		return model.BrainRecord{}, err
	}
	if err := checkVersion(brain.VersionedRecord); err != nil {
		return model.BrainRecord{}, err
	}
	return brain, nil
}

func EncodePopulation(p model.PopulationRecord) ([]byte, error) {
	return json.Marshal(p)
}

func DecodePopulation(data []byte) (model.PopulationRecord, error) {
	var population model.PopulationRecord
	if err := json.Unmarshal(data, &population); err != nil {
		return model.PopulationRecord{}, err
	}
	if err := checkVersion(population.VersionedRecord); err != nil {
		return model.PopulationRecord{}, err
	}
	return population, nil
}

func EncodeGenerationStats(stats []model.GenerationStats) ([]byte, error) {
	return json.Marshal(stats)
}

func DecodeGenerationStats(data []byte) ([]model.GenerationStats, error) {
	var stats []model.GenerationStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema %d codec %d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
