package websocket

import "errors"

var ErrClientClosed = errors.New("client connection closed")
