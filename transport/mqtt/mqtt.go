/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package mqtt exposes an engine.Engine over MQTT: each subscribed
// message's topic identifies the user (the segment after the
// configured request prefix), the payload is the chat message, and
// the reply is published back under the configured reply prefix plus
// that same username segment.
package mqtt

import (
	"context"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	ilog "github.com/korea/kivescript/internal/log"
)

// Replier is the subset of engine.Engine a gateway needs.
type Replier interface {
	Reply(ctx context.Context, username, message string) (string, error)
}

// Gateway bridges an MQTT broker's publish/subscribe topics to an
// engine's Reply calls.
type Gateway struct {
	Engine        Replier
	Client        mqtt.Client
	RequestPrefix string // e.g. "kivescript/request/"
	ReplyPrefix   string // e.g. "kivescript/reply/"
	QoS           byte
	ReplyTimeout  time.Duration
}

// NewGateway returns a Gateway using client, publishing replies under
// replyPrefix+username for messages received on requestPrefix+username.
func NewGateway(e Replier, client mqtt.Client, requestPrefix, replyPrefix string) *Gateway {
	return &Gateway{
		Engine:        e,
		Client:        client,
		RequestPrefix: requestPrefix,
		ReplyPrefix:   replyPrefix,
		QoS:           1,
		ReplyTimeout:  5 * time.Second,
	}
}

// Start subscribes to RequestPrefix+"#" and begins servicing incoming
// messages until Stop is called. ctx is the parent of each Reply
// call's ReplyTimeout context; canceling it does not end the
// subscription.
func (g *Gateway) Start(ctx context.Context) error {
	token := g.Client.Subscribe(g.RequestPrefix+"#", g.QoS, g.handle(ctx))
	token.Wait()
	return token.Error()
}

func (g *Gateway) handle(ctx context.Context) mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		username := strings.TrimPrefix(msg.Topic(), g.RequestPrefix)
		if username == "" {
			ilog.Logf("mqtt: message on bare request prefix, no username: %s", msg.Topic())
			return
		}

		callCtx, cancel := context.WithTimeout(ctx, g.ReplyTimeout)
		defer cancel()

		reply, err := g.Engine.Reply(callCtx, username, string(msg.Payload()))
		if err != nil {
			ilog.Logf("mqtt: Reply error for %q: %v", username, err)
			return
		}

		token := client.Publish(g.ReplyPrefix+username, g.QoS, false, []byte(reply))
		token.Wait()
		if err := token.Error(); err != nil {
			ilog.Logf("mqtt: publish error for %q: %v", username, err)
		}
	}
}

// Stop unsubscribes and disconnects the underlying client.
func (g *Gateway) Stop(quiesceMillis uint) {
	g.Client.Unsubscribe(g.RequestPrefix + "#")
	g.Client.Disconnect(quiesceMillis)
}
