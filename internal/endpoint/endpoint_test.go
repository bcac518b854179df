package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	sts := Service{Prefix: "sts"}
	iam := Service{Prefix: "iam", Global: true}

	tests := []struct {
		name     string
		svc      Service
		region   string
		override string
		want     string
	}{
		{"regional", sts, "eu-west-1", "", "https://sts.eu-west-1.amazonaws.com"},
		{"china", sts, "cn-northwest-1", "", "https://sts.cn-northwest-1.amazonaws.com.cn"},
		{"global", iam, "ap-southeast-2", "", "https://iam.amazonaws.com"},
		{"global without region", iam, "", "", "https://iam.amazonaws.com"},
		{"global china", iam, "cn-north-1", "", "https://iam.cn-north-1.amazonaws.com.cn"},
		{"override", sts, "", "http://127.0.0.1:4566/", "http://127.0.0.1:4566"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.svc, tt.region, tt.override)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	_, err := Resolve(Service{Prefix: "sts"}, "", "")
	assert.ErrorIs(t, err, ErrNoRegion)

	_, err = Resolve(Service{Prefix: "sts"}, "us-east-1", "localhost:4566")
	assert.Error(t, err)

	_, err = Resolve(Service{}, "us-east-1", "")
	assert.Error(t, err)
}

func TestSigningRegion(t *testing.T) {
	iam := Service{Prefix: "iam", Global: true}
	assert.Equal(t, "us-east-1", SigningRegion(iam, "eu-central-1"))
	assert.Equal(t, "cn-north-1", SigningRegion(iam, "cn-northwest-1"))
	assert.Equal(t, "eu-central-1", SigningRegion(Service{Prefix: "sts"}, "eu-central-1"))
}
