// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package models holds the player types shared by the Kodi integration and
the sensor engines.

  - KodiNotification: a JSON-RPC notification frame from the websocket
  - PlayerSnapshot: the player as seen by one resolve pass
  - PlayerState: off, idle, playing or paused
  - LifecycleEvent: one observed transition, fanned out to every sensor

The package has no dependencies on the rest of the module so both kodi and
sensor can import it.
*/
package models
