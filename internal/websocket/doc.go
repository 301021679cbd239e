// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package websocket pushes sensor updates to connected clients.

Every time a sensor finishes a pass that changed its state or attributes,
the event forwarder hands the snapshot to the Hub, which broadcasts a
sensor_updated message to every client:

	{"type": "sensor_updated", "data": {"id": "kms_p_", "kind": "playlist",
	 "state": "ONLINE", "attributes": {"meta": [...], "data": [...]}}}

Key Components:

  - Hub: owns the client set and fans messages out in client id order
  - Client: one connection with a read goroutine (pings) and a write goroutine
  - Message: the typed envelope written to the wire

Each client has a bounded send buffer. A client that cannot keep up is
dropped rather than slowing the hub down. Clients may send {"type":"ping"}
and get {"type":"pong"} back; everything else they send is ignored.

The hub runs under the supervisor through RunWithContext and closes all
clients when its context ends.
*/
package websocket
