package apiconnect

import (
	"testing"

	api "github.com/yurawu27/splittie/pkg/api"
)

func TestJSONCodec(t *testing.T) {
	codec := JSONCodec{}
	if codec.Name() != "json" {
		t.Fatalf("Name() = %q, want json", codec.Name())
	}

	name := "fries"
	data, err := codec.Marshal(&api.ItemInput{Name: &name, Cost: "3.50"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"name":"fries","cost":"3.50"}` {
		t.Errorf("Marshal = %s", data)
	}

	var item api.ItemInput
	if err := codec.Unmarshal([]byte(`{"cost":"2"}`), &item); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if item.Name != nil || item.Cost != "2" {
		t.Errorf("Unmarshal = %+v, want nil name and cost 2", item)
	}

	var empty api.ListBillsRequest
	if err := codec.Unmarshal(nil, &empty); err != nil {
		t.Errorf("empty body should decode to the zero message: %v", err)
	}

	if err := codec.Unmarshal([]byte(`{"cost":`), &item); err == nil {
		t.Error("expected error for truncated JSON")
	}
}
