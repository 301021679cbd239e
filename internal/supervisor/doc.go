// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package supervisor runs the sensor service's long-lived goroutines under
suture v4.

	mediasensors
	├── data-layer
	│   ├── kodi-manager         connection lifecycle and player tracking
	│   ├── sensor-<id>          one engine per configured sensor
	│   └── keep-alive-ticker
	├── messaging-layer
	│   ├── websocket-hub
	│   └── event-forwarder      bus -> hub
	└── api-layer
	    └── http-server

A service that returns an error is restarted with suture's backoff. A
layer that keeps failing is restarted as a whole without touching the
others. Supervisor events are logged through sutureslog into the zerolog
logger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	tree.AddDataService(manager)
	tree.AddMessagingService(services.NewRunnerService("websocket-hub", hub.RunWithContext))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)

Sub-package services holds the adapters for loops that do not implement
suture.Service themselves.
*/
package supervisor
