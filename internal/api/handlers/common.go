// Package handlers содержит HTTP-хендлеры API.
// Все ответы заворачиваются в единый конверт {code, msg, data}
package handlers

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"bracket/internal/exchange"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// response - единый конверт ответа API
type response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// writeJSON отправляет конверт с указанным HTTP-статусом
func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// ok отвечает 200 с данными
func ok(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, response{Code: 0, Msg: "ok", Data: data})
}

// badRequest отвечает 400 с текстом ошибки валидации
func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, response{Code: 400, Msg: err.Error()})
}

// fail переводит ошибку нижнего слоя в HTTP-ответ.
// Ошибка биржи отдаётся клиенту с её кодом, остальные - как 502
func fail(w http.ResponseWriter, err error) {
	var apiErr *exchange.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusBadGateway
		if apiErr.HTTPStatus >= 400 && apiErr.HTTPStatus < 500 {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, response{Code: apiErr.Code, Msg: apiErr.Message})
		return
	}
	writeJSON(w, http.StatusBadGateway, response{Code: 502, Msg: err.Error()})
}

// decodeBody читает JSON-тело запроса
func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
