package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

type PushSendResponse struct {
	Success int              `json:"success"`
	Failure int              `json:"failure"`
	Results []PushSendResult `json:"results"`
}

type PushSendResult struct {
	Error *string `json:"error"`
}

type PushSendRequest struct {
	Notification    PushNotification `json:"notification"`
	Data            PushData         `json:"data"`
	RegistrationIDs []string         `json:"registration_ids"`
}

type PushNotification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	ClickAction string `json:"click_action"`
	Sound       string `json:"sound"`
}

type PushData struct {
	ListID     string `json:"list_id"`
	ActivityID string `json:"activity_id"`
}

// PushSendNotification relays a notification to the push service. Delivery is
// best effort; the caller decides whether a failure matters.
func (c Client) PushSendNotification(pushReqBody PushSendRequest) (PushSendResponse, error) {
	reqBody, err := json.Marshal(pushReqBody)
	if err != nil {
		return PushSendResponse{}, errors.Wrapf(err, "PushSendNotification: PushSendRequest JSON marshalling error, req: %+v", pushReqBody)
	}

	req, err := newRequest(http.MethodPost, "https://fcm.googleapis.com/fcm/send", bytes.NewReader(reqBody))
	if err != nil {
		return PushSendResponse{}, errors.Wrapf(err, "PushSendNotification: error creating HTTP request from body: %s", reqBody)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.PushKey)

	resp, err := c.Do(req)
	if err != nil {
		return PushSendResponse{}, errors.Wrapf(err, "PushSendNotification: error doing request: %+v", req)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("PushSendNotification: error closing response body, req: %+v, err: %v", req, err)
		}
	}()

	pushSendResp := PushSendResponse{}
	respBody, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300000))
	if err != nil {
		return pushSendResp, errors.Wrapf(err,
			"PushSendNotification: error reading push API response body, req: %+v, response body: %s", req, respBody)
	}
	err = json.Unmarshal(respBody, &pushSendResp)
	return pushSendResp, errors.Wrapf(err,
		"PushSendNotification: error unmarshalling push API response body, req: %+v, response body: %s", req, respBody)
}
