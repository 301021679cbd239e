// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package services adapts the long-running parts of the sensor service to
// suture.Service.
//
//   - HTTPServerService: the REST and websocket API
//   - RunnerService: any blocking loop, such as a sensor engine or the hub
//   - KeepAliveService: the periodic keep-alive tick
//
// The Kodi connection manager and the event forwarder implement
// suture.Service themselves and are added to the tree directly.
package services
