package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrawResult_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		numbers []string
		wantErr bool
	}{
		{name: "five positions", numbers: []string{"1234", "5678", "9012", "3456", "7890"}},
		{name: "ten positions", numbers: []string{"1234", "5678", "9012", "3456", "7890", "0001", "0002", "0003", "0004", "0005"}},
		{name: "four positions", numbers: []string{"1234", "5678", "9012", "3456"}, wantErr: true},
		{name: "empty", numbers: nil, wantErr: true},
		{name: "three digits", numbers: []string{"1234", "5678", "901", "3456", "7890"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := (&DrawResult{ID: 1, Numbers: tt.numbers}).Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var digitsErr *InvalidDigitsError
			assert.ErrorAs(t, err, &digitsErr)
		})
	}
}
