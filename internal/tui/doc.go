// Package tui implements the full-screen terminal dashboard for KUMO routers.
//
// Built on Bubble Tea, it follows the Model-Update-View pattern with three
// screens coordinated by AppModel:
//   - Discovery: mDNS scan for routers, or manual address entry
//   - Connecting: login spinner, with a failure screen offering retry
//   - Dashboard: the routing matrix, sources as rows and destinations as
//     columns, kept live by the client's poll loop
//
// The dashboard subscribes to the client's notifications and applies them to
// a state.Mirror on the poll goroutine; the Bubble Tea side only re-reads the
// mirror snapshot when signalled. A topology reset reloads the whole mirror.
//
// # Display settings
//
// The ui section of the settings file shapes the grid:
//   - circle_size is the cell width, clamped to 3..12 columns
//   - draw_connection_lines draws a line above each routed cell
//   - flat_buttons drops the brackets around port labels
//   - use_colors_for_buttons_text colors the label text instead of its background
//   - disable_color_name colors the labels of locked destinations
//
// # Usage Example
//
//	err := tui.Run(ctx, tui.Options{
//	    Engine:   settings.EngineConfig(),
//	    Password: settings.LoginPassword,
//	    UI:       settings.UI,
//	})
package tui
