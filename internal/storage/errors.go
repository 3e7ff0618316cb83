package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

var missingObjectCodes = map[string]bool{"NoSuchKey": true, "NotFound": true}

// IsNoSuchKey 报告 err 是否为对象不存在。部分网关只返回纯文本错误，按文本兜底匹配。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	if resp := (minio.ErrorResponse{}); errors.As(err, &resp) {
		return missingObjectCodes[resp.Code]
	}
	return strings.Contains(strings.ToLower(err.Error()), "nosuchkey")
}
