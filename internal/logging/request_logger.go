// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const ginRequestIDKey = "request_id"

// GinLogrusLogger returns a gin middleware that assigns every request a short id
// and logs method, path, status and latency through logrus.
func GinLogrusLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()[:8]
		}
		c.Set(ginRequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()

		entry := log.WithFields(log.Fields{
			RequestIDField: id,
			"status":       c.Writer.Status(),
			"latency":      time.Since(start).Round(time.Microsecond),
			"client":       c.ClientIP(),
		})
		msg := c.Request.Method + " " + c.Request.URL.Path
		switch {
		case c.Writer.Status() >= 500:
			entry.Error(msg)
		case c.Writer.Status() >= 400:
			entry.Warn(msg)
		default:
			entry.Debug(msg)
		}
	}
}

// FromContext returns a logrus entry tagged with the request id of c, if any.
func FromContext(c *gin.Context) *log.Entry {
	if c != nil {
		if id := c.GetString(ginRequestIDKey); id != "" {
			return log.WithField(RequestIDField, id)
		}
	}
	return log.NewEntry(log.StandardLogger())
}
