package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/eth2030/rpcbridge/geth"
)

func TestFieldMappingsCoverEveryEntity(t *testing.T) {
	for _, entity := range geth.Entities() {
		if len(fieldMappings[entity]) == 0 {
			t.Errorf("no field mappings for %q", entity)
		}
	}
	if len(fieldMappings) != len(geth.Entities()) {
		t.Errorf("fieldMappings has %d entities, codecs have %d", len(fieldMappings), len(geth.Entities()))
	}
}

func TestFieldsCommand(t *testing.T) {
	stdout, _, err := execute(t, "", "fields", "transaction")
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	for _, want := range []string{"maxFeePerGas", "Tx.GasFeeCap()", "TxExtraInfo", "fee cap for fee-market"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "CallMsg") {
		t.Errorf("transaction table lists call fields:\n%s", stdout)
	}

	if _, _, err := execute(t, "", "fields", "bogus"); err == nil {
		t.Error("fields bogus succeeded")
	}
}

func TestPrintFieldsAll(t *testing.T) {
	var buf bytes.Buffer
	printFields(&buf, geth.Entities())
	for _, entity := range geth.Entities() {
		if !strings.Contains(buf.String(), entity) {
			t.Errorf("output missing entity %q", entity)
		}
	}
}
