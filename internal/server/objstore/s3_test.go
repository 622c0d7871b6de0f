package objstore

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fileshare/internal/common"
)

func TestOpError_RecoversHTTPStatus(t *testing.T) {
	sdkErr := &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{
				Response: &http.Response{StatusCode: 503, Status: "503 Slow Down"},
			},
			Err: errors.New("api error SlowDown"),
		},
		RequestID: "req-1",
	}

	err := opError("upload", fmt.Errorf("put part: %w", sdkErr))

	var opErr *common.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "upload", opErr.Op)
	assert.Equal(t, 503, opErr.Code)
	assert.Equal(t, "503 Slow Down", opErr.Text)
	assert.Equal(t, "upload failed: status 503 503 Slow Down", opErr.Error())
}

func TestOpError_NoResponse(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	err := opError("download", cause)

	var opErr *common.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "download", opErr.Op)
	assert.Zero(t, opErr.Code)
	assert.Empty(t, opErr.Text)
	assert.ErrorIs(t, err, cause)
}
