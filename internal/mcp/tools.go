package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.client.GetWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}

	return nil, ListWindowsOutput{
		Count:   len(data.Windows),
		Windows: data.Windows,
	}, nil
}

func (s *Server) handleActivateWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ActivateWindowInput) (*mcpsdk.CallToolResult, ActivateWindowOutput, error) {
	if args.WindowID == 0 {
		return nil, ActivateWindowOutput{}, fmt.Errorf("window_id is required")
	}

	if err := s.client.Activate(args.WindowID); err != nil {
		return nil, ActivateWindowOutput{}, err
	}

	s.log.Debug("window activated via MCP", "window", args.WindowID)
	return nil, ActivateWindowOutput{
		WindowID:  args.WindowID,
		Activated: true,
	}, nil
}

func (s *Server) handleSwitcherStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ SwitcherStatusInput) (*mcpsdk.CallToolResult, SwitcherStatusOutput, error) {
	st, err := s.client.GetStatus()
	if err != nil {
		return nil, SwitcherStatusOutput{}, err
	}

	return nil, SwitcherStatusOutput{
		State:             st.State,
		Edge:              st.Edge,
		Ready:             st.Ready,
		SnoozedUntil:      st.SnoozedUntil,
		WindowCount:       st.WindowCount,
		PreviewCount:      st.PreviewCount,
		MonitorCount:      st.MonitorCount,
		Placement:         st.Placement,
		SessionEpoch:      st.SessionEpoch,
		SessionOps:        st.SessionOps,
		SessionAgeSeconds: st.SessionAgeSeconds,
		UptimeSeconds:     st.UptimeSeconds,
	}, nil
}

func (s *Server) handleShowSwitcher(_ context.Context, _ *mcpsdk.CallToolRequest, _ ShowSwitcherInput) (*mcpsdk.CallToolResult, ShowSwitcherOutput, error) {
	if err := s.client.Show(); err != nil {
		return nil, ShowSwitcherOutput{}, err
	}
	return nil, ShowSwitcherOutput{Shown: true}, nil
}

func (s *Server) handleHideSwitcher(_ context.Context, _ *mcpsdk.CallToolRequest, args HideSwitcherInput) (*mcpsdk.CallToolResult, HideSwitcherOutput, error) {
	if err := s.client.Hide(args.Now); err != nil {
		return nil, HideSwitcherOutput{}, err
	}
	return nil, HideSwitcherOutput{Hidden: true}, nil
}

func (s *Server) handleSnoozeSwitcher(_ context.Context, _ *mcpsdk.CallToolRequest, args SnoozeSwitcherInput) (*mcpsdk.CallToolResult, SnoozeSwitcherOutput, error) {
	if args.ForSeconds < 0 {
		return nil, SnoozeSwitcherOutput{}, fmt.Errorf("for_seconds must not be negative")
	}

	data, err := s.client.Snooze(args.ForSeconds)
	if err != nil {
		return nil, SnoozeSwitcherOutput{}, err
	}
	return nil, SnoozeSwitcherOutput{Until: data.Until}, nil
}
