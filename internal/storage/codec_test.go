package storage

import (
	"errors"
	"testing"

	"brainzzz/internal/model"
)

func TestCodecBrainRoundTrip(t *testing.T) {
	in := sampleBrain("b1")
	data, err := EncodeBrain(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeBrain(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != in.ID || out.Genome.NextNodeID != 2 || out.Genome.Connections[0].Polarity != "excitatory" {
		t.Fatalf("unexpected decoded brain: %+v", out)
	}
}

func TestCodecRejectsVersionMismatch(t *testing.T) {
	brain := sampleBrain("b1")
	brain.SchemaVersion = CurrentSchemaVersion + 1
	data, err := EncodeBrain(brain)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeBrain(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}

	run := model.RunRecord{ID: "r1"}
	data, err = EncodeRun(run)
	if err != nil {
		t.Fatalf("encode run: %v", err)
	}
	if _, err := DecodeRun(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch for unversioned run, got %v", err)
	}

	population := model.PopulationRecord{VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 2}}
	data, _ = EncodePopulation(population)
	if _, err := DecodePopulation(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch for population, got %v", err)
	}
}

func TestCodecRejectsMalformedPayload(t *testing.T) {
	if _, err := DecodeGenerationStats([]byte("{")); err == nil {
		t.Fatal("expected decode error")
	}
}
