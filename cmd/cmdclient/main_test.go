package main

import (
	"math"
	"testing"

	"github.com/danmuck/cmdclient/internal/metadata"
)

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if opts.kind != "user_exit" || opts.configPath != defaultConfigPath {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}

func TestBuildMetadataFields(t *testing.T) {
	opts, err := parseFlags([]string{"-kind", "pc_shutdown_with_timer", "-timer", "30", "-text", "saving work"})
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	payload, err := buildMetadata(opts)
	if err != nil {
		t.Fatalf("build metadata: %v", err)
	}
	fields, err := metadata.DecodeFields(payload)
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	timer, ok := metadata.GetField(fields, metadata.FieldTimerSeconds)
	if !ok {
		t.Fatalf("missing timer field")
	}
	if v, _ := timer.AsU32(); v != 30 {
		t.Fatalf("unexpected timer: %d", v)
	}
	text, err := metadata.LookupString(payload, metadata.FieldMessageText)
	if err != nil || text != "saving work" {
		t.Fatalf("unexpected text=%q err=%v", text, err)
	}
}

func TestBuildMetadataStruct(t *testing.T) {
	opts, err := parseFlags([]string{"-meta", "script=cleanup.ps1", "-meta", "force=true", "-meta", "retries=3"})
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	payload, err := buildMetadata(opts)
	if err != nil {
		t.Fatalf("build metadata: %v", err)
	}
	values, err := metadata.DecodeStruct(payload)
	if err != nil {
		t.Fatalf("decode struct: %v", err)
	}
	if values["script"] != "cleanup.ps1" || values["force"] != true || values["retries"] != float64(3) {
		t.Fatalf("unexpected values: %+v", values)
	}
}

func TestBuildMetadataEmpty(t *testing.T) {
	payload, err := buildMetadata(options{})
	if err != nil || payload != nil {
		t.Fatalf("expected no metadata, got %v err=%v", payload, err)
	}
}

func TestParseFlagsRejectsMixedMetadata(t *testing.T) {
	if _, err := parseFlags([]string{"-meta", "a=1", "-text", "hi"}); err == nil {
		t.Fatalf("expected mixed metadata error")
	}
	if _, err := parseFlags([]string{"-meta", "novalue"}); err == nil {
		t.Fatalf("expected malformed meta error")
	}
}

func TestParseFlagsTimerRange(t *testing.T) {
	for _, raw := range []string{"4294967296", "4294967297", "-1", "soon"} {
		if _, err := parseFlags([]string{"-timer", raw}); err == nil {
			t.Fatalf("expected -timer %s to be rejected", raw)
		}
	}

	opts, err := parseFlags([]string{"-timer", "4294967295"})
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	payload, err := buildMetadata(opts)
	if err != nil {
		t.Fatalf("build metadata: %v", err)
	}
	fields, err := metadata.DecodeFields(payload)
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	timer, ok := metadata.GetField(fields, metadata.FieldTimerSeconds)
	if !ok {
		t.Fatalf("missing timer field")
	}
	if v, _ := timer.AsU32(); v != math.MaxUint32 {
		t.Fatalf("unexpected timer: %d", v)
	}
}
