// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/errors"
)

const (
	CodeSuccess int = 2000
)

var (
	successMeta = Meta{
		Code:    CodeSuccess,
		Message: "OK",
	}
)

type Meta struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Response struct {
	Meta Meta        `json:"meta"`
	Data interface{} `json:"data"`
}

type ListData struct {
	Rows       interface{} `json:"rows"`
	TotalCount int         `json:"total_count"`
}

func SuccessResp(ctx context.Context, data interface{}) Response {
	return Response{
		Meta: successMeta,
		Data: data,
	}
}

func ErrorResp(ctx context.Context, code int, errMsg string, data interface{}) Response {
	return Response{
		Meta: Meta{
			Code:    code,
			Message: errMsg,
		},
		Data: data,
	}
}

type Error struct {
	Code        int
	Message     string
	OriginError error
}

func (e Error) Error() string {
	return fmt.Sprintf("Code %d.Message %s.Origin error %+v", e.Code, e.Message, e.OriginError)
}

// ParseResponse decodes an envelope from a collaborator speaking the same
// protocol and unmarshals its data into targetData.
func ParseResponse(bodyReader io.Reader, targetData interface{}) (*Meta, error) {
	buffer := &bytes.Buffer{}
	_, err := buffer.ReadFrom(bodyReader)
	if err != nil {
		return nil, err
	}
	return ParseResponseBytes(buffer.Bytes(), targetData)
}

func ParseResponseBytes(body []byte, targetData interface{}) (*Meta, error) {
	resp := &Response{}
	err := json.Unmarshal(body, resp)
	if err != nil {
		return nil, err
	}
	if resp.Meta.Code == 0 {
		return nil, errors.NewError().WithCode(errors.ClientError).WithMessage("Remote side returned no data")
	}
	if resp.Meta.Code != CodeSuccess {
		return &resp.Meta, errors.NewError().WithCode(resp.Meta.Code).WithMessage(resp.Meta.Message)
	}
	if targetData != nil && resp.Data != nil {
		raw, err := json.Marshal(resp.Data)
		if err != nil {
			return &resp.Meta, errors.NewError().WithCode(errors.ClientError).WithError(err).WithMessage("Failed to parse body")
		}
		if err := json.Unmarshal(raw, targetData); err != nil {
			return &resp.Meta, errors.NewError().WithCode(errors.ClientError).WithError(err).WithMessage("Failed to parse body")
		}
	}
	return &resp.Meta, nil
}

func NewListData(datas interface{}, totalCount int) ListData {
	return ListData{
		Rows:       datas,
		TotalCount: totalCount,
	}
}
