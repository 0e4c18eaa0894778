package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/igamenovoer/blender-remote/pkg/protocol"
)

// base64Threshold is the source-length cutoff above which execute_code
// payloads are sent base64-encoded.
const base64Threshold = 4 * 1024

// RegisterTools wires the full tool surface onto mcpServer, each tool
// dispatching through client.
func RegisterTools(mcpServer *server.MCPServer, client *Client) {
	mcpServer.AddTool(mcp.NewTool("get_scene_info",
		mcp.WithDescription("Summarize the current scene: objects, counts, materials."),
	), handleGetSceneInfo(client))

	mcpServer.AddTool(mcp.NewTool("get_object_info",
		mcp.WithDescription("Describe a single scene object by name."),
		mcp.WithString("object_name", mcp.Required(), mcp.Description("Name of the object to inspect")),
	), handleGetObjectInfo(client))

	mcpServer.AddTool(mcp.NewTool("get_viewport_screenshot",
		mcp.WithDescription("Capture the current viewport as an image."),
		mcp.WithNumber("max_size", mcp.Description("Maximum image dimension in pixels")),
		mcp.WithString("filepath", mcp.Description("Optional path to also save the image to")),
		mcp.WithString("format", mcp.Description("Image format: png or jpeg")),
	), handleGetViewportScreenshot(client))

	mcpServer.AddTool(mcp.NewTool("execute_code",
		mcp.WithDescription("Execute code in the Host's scripting context and capture stdout."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source code to execute")),
		mcp.WithBoolean("return_as_base64", mcp.Description("Base64-encode the returned result")),
	), handleExecuteCode(client))

	mcpServer.AddTool(mcp.NewTool("check_connection_status",
		mcp.WithDescription("Probe whether the Blender bridge is reachable."),
	), handleCheckConnectionStatus(client))

	mcpServer.AddTool(mcp.NewTool("put_persist_data",
		mcp.WithDescription("Store a value in the bridge's session persist map."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key to store the value under")),
		mcp.WithString("data", mcp.Required(), mcp.Description("JSON-encoded value to store")),
	), handlePutPersistData(client))

	mcpServer.AddTool(mcp.NewTool("get_persist_data",
		mcp.WithDescription("Retrieve a value from the bridge's session persist map."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key to retrieve")),
		mcp.WithString("default", mcp.Description("JSON-encoded fallback value if the key is absent")),
	), handleGetPersistData(client))

	mcpServer.AddTool(mcp.NewTool("remove_persist_data",
		mcp.WithDescription("Remove a value from the bridge's session persist map."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key to remove")),
	), handleRemovePersistData(client))
}

func handleGetSceneInfo(client *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := client.Call(&protocol.Request{Type: "get_scene_info"})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("calling bridge", err), nil
		}
		return resultOrError(resp)
	}
}

func handleGetObjectInfo(client *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("object_name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		params, _ := json.Marshal(protocol.GetObjectInfoParams{ObjectName: name})
		resp, err := client.Call(&protocol.Request{Type: "get_object_info", Params: params})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("calling bridge", err), nil
		}
		return resultOrError(resp)
	}
}

func handleGetViewportScreenshot(client *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p := protocol.GetViewportScreenshotParams{
			MaxSize:  int(request.GetFloat("max_size", 0)),
			Filepath: request.GetString("filepath", ""),
			Format:   request.GetString("format", ""),
		}
		params, _ := json.Marshal(p)
		resp, err := client.Call(&protocol.Request{Type: "get_viewport_screenshot", Params: params})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("calling bridge", err), nil
		}
		if resp.Status != protocol.StatusSuccess {
			return mcp.NewToolResultError(resp.Message), nil
		}

		result, ok := resp.Result.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("malformed screenshot result from bridge"), nil
		}
		imageB64, _ := result["image_base64"].(string)
		format, _ := result["format"].(string)
		mimeType := "image/png"
		if format == "jpg" || format == "jpeg" {
			mimeType = "image/jpeg"
		}
		return mcp.NewToolResultImage("viewport screenshot", imageB64, mimeType), nil
	}
}

func handleExecuteCode(client *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := request.RequireString("code")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		returnAsBase64 := request.GetBool("return_as_base64", false)

		p := protocol.ExecuteCodeParams{
			Code:           code,
			ReturnAsBase64: returnAsBase64,
		}
		if shouldSendAsBase64(code) {
			p.Code = base64.StdEncoding.EncodeToString([]byte(code))
			p.SendAsBase64 = true
		}

		params, _ := json.Marshal(p)
		resp, err := client.Call(&protocol.Request{Type: "execute_code", Params: params})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("calling bridge", err), nil
		}
		if resp.Status != protocol.StatusSuccess {
			return mcp.NewToolResultError(resp.Message), nil
		}

		result, ok := resp.Result.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("malformed execute_code result from bridge"), nil
		}
		text, _ := result["result"].(string)
		if isBase64, _ := result["result_is_base64"].(bool); isBase64 {
			decoded, err := base64.StdEncoding.DecodeString(text)
			if err != nil {
				return mcp.NewToolResultErrorFromErr("decoding base64 result", err), nil
			}
			text = string(decoded)
		}
		return mcp.NewToolResultText(text), nil
	}
}

func handleCheckConnectionStatus(client *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := map[string]any{"host": client.Host, "port": client.Port}
		if err := client.Probe(); err != nil {
			status["connected"] = false
			status["last_error"] = err.Error()
		} else {
			status["connected"] = true
		}
		return mcp.NewToolResultStructured(status, fmt.Sprintf("connected=%v", status["connected"])), nil
	}
}

func handlePutPersistData(client *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := request.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dataRaw := request.GetString("data", "null")
		var data any
		if err := json.Unmarshal([]byte(dataRaw), &data); err != nil {
			data = dataRaw
		}
		params, _ := json.Marshal(protocol.PutPersistDataParams{Key: key, Data: data})
		resp, err := client.Call(&protocol.Request{Type: "put_persist_data", Params: params})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("calling bridge", err), nil
		}
		return resultOrError(resp)
	}
}

func handleGetPersistData(client *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := request.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var def any
		if defRaw := request.GetString("default", ""); defRaw != "" {
			_ = json.Unmarshal([]byte(defRaw), &def)
		}
		params, _ := json.Marshal(protocol.GetPersistDataParams{Key: key, Default: def})
		resp, err := client.Call(&protocol.Request{Type: "get_persist_data", Params: params})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("calling bridge", err), nil
		}
		return resultOrError(resp)
	}
}

func handleRemovePersistData(client *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := request.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		params, _ := json.Marshal(protocol.RemovePersistDataParams{Key: key})
		resp, err := client.Call(&protocol.Request{Type: "remove_persist_data", Params: params})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("calling bridge", err), nil
		}
		return resultOrError(resp)
	}
}

// resultOrError turns a bridge Response into an MCP tool result, surfacing
// the error message verbatim on failure.
func resultOrError(resp *protocol.Response) (*mcp.CallToolResult, error) {
	if resp.Status != protocol.StatusSuccess {
		return mcp.NewToolResultError(resp.Message), nil
	}
	body, err := json.Marshal(resp.Result)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("encoding result", err), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

// shouldSendAsBase64 detects source that would JSON-escape awkwardly:
// control characters, embedded quotes, or source longer than 4 KiB all
// favor the base64 envelope instead.
func shouldSendAsBase64(code string) bool {
	if len(code) > base64Threshold {
		return true
	}
	if strings.ContainsRune(code, '"') {
		return true
	}
	for _, r := range code {
		if r != '\n' && r != '\t' && unicode.IsControl(r) {
			return true
		}
	}
	return false
}
