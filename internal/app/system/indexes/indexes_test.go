package indexes

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestKeySig(t *testing.T) {
	got := keySig(bson.D{{Key: "workbench_id", Value: 1}, {Key: "created_at", Value: -1}})
	if got != "workbench_id:1, created_at:-1" {
		t.Errorf("keySig() = %q", got)
	}
}

func TestIsDuplicateKeyErr(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("boom"), false},
		{errors.New("E11000 duplicate key error collection"), true},
	}
	for _, tt := range tests {
		if got := isDuplicateKeyErr(tt.err); got != tt.want {
			t.Errorf("isDuplicateKeyErr(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
