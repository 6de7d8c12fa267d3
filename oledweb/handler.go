// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oledweb

import (
	"mime"
	"net/http"
	"net/textproto"
	"net/url"
	"time"
)

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

func (d *Display) formatFromQuery(values url.Values) (ImageFormat, error) {
	if value := values.Get("format"); value != "" {
		return ImageFormatFromString(value)
	}
	return d.defaultFormat, nil
}

func (d *Display) bufferChangedLocked() {
	for format, buffer := range d.snapshot {
		if buffer != nil {
			//lint:ignore SA6002 buffer is []byte and thus pointer-like
			bufferPool.Put(buffer)
		}
		delete(d.snapshot, format)
	}
	for c := range d.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
}

func (d *Display) terminateClientsLocked() {
	for c := range d.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
}

// grabSnapshot returns the encoded picture. The caller owns the returned
// slice.
func (d *Display) grabSnapshot(format ImageFormat) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	encoded, ok := d.snapshot[format]
	if !ok {
		var err error
		if encoded, err = encode(d.buffer, format); err != nil {
			return nil, err
		}
		d.snapshot[format] = encoded
	}
	return append(bufferPool.Get().([]byte)[:0], encoded...), nil
}

// ServeHTTP handles HTTP GET requests and sends a stream of images of the
// panel in response. Clients can request a format with the "format"
// parameter ("?format=png", "?format=gif", "?format=jpeg").
func (d *Display) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.Body.Close(); err != nil {
		lg.Warnf("Closing request body failed: %v", err)
	}
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	format, err := d.formatFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pw := makePartWriter(w)
	w.Header().Set("Content-Type",
		mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
			"boundary": pw.boundary,
		}))

	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}
	d.mu.Lock()
	d.clients[c] = struct{}{}
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.clients, c)
		d.mu.Unlock()
	}()
	lg.Debugf("%s: streaming %s to %s", d, format, r.RemoteAddr)

	var keepAlive <-chan time.Time
	if d.keepAlive > 0 {
		t := time.NewTicker(d.keepAlive)
		defer t.Stop()
		keepAlive = t.C
	}

	partHeaders := make(textproto.MIMEHeader)
	partHeaders.Set("Content-Type", mime.FormatMediaType(format.mimeType(), nil))
	partHeaders.Set("Content-Transfer-Encoding", "binary")

	for {
		payload, err := d.grabSnapshot(format)
		if err != nil {
			lg.Errorf("%s: encoding %s failed: %v", d, format, err)
			return
		}
		err = pw.writeFrame(partHeaders, payload)
		//lint:ignore SA6002 buffer is []byte and thus pointer-like
		bufferPool.Put(payload)
		if err != nil {
			// There is no way to report an error within an image stream, the
			// request is terminated.
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		select {
		case <-c.refresh:
		case <-keepAlive:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}
