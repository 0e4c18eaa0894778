// Package router implements the command router: a handler table dispatching
// by request "type", plus the legacy no-"type" shape.
package router

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"time"

	bridgeerrors "github.com/igamenovoer/blender-remote/pkg/errors"
	"github.com/igamenovoer/blender-remote/pkg/dispatch"
	"github.com/igamenovoer/blender-remote/pkg/host"
	"github.com/igamenovoer/blender-remote/pkg/host/script"
	"github.com/igamenovoer/blender-remote/pkg/logger"
	"github.com/igamenovoer/blender-remote/pkg/persist"
	"github.com/igamenovoer/blender-remote/pkg/protocol"
)

// DefaultDispatchTimeout bounds how long a dispatched handler may run
// before the caller gives up and the result is discarded.
const DefaultDispatchTimeout = 30 * time.Second

// ShutdownFunc is called by the server_shutdown handler to schedule an
// asynchronous server stop.
type ShutdownFunc func()

// Router owns the persist store and dispatches requests to handlers.
// Handlers that touch the Host run on the host worker goroutine via Worker;
// the persist, server_shutdown and get_polyhaven_status handlers run
// directly on the caller's goroutine.
type Router struct {
	Worker   *dispatch.Worker
	Host     *host.Host
	Persist  *persist.Store
	Source   string // "tcp://host:port", used for the legacy response shape
	Shutdown ShutdownFunc
	// Timeout overrides DefaultDispatchTimeout when non-zero; used by tests
	// that exercise the timeout path without waiting 30s.
	Timeout time.Duration
}

// New builds a Router bound to the given worker, host, and persist store.
func New(w *dispatch.Worker, h *host.Host, p *persist.Store, source string, shutdown ShutdownFunc) *Router {
	return &Router{Worker: w, Host: h, Persist: p, Source: source, Shutdown: shutdown}
}

// Handle routes a single decoded request to its handler and returns the
// response envelope to write back to the client. It never panics: any
// handler error becomes an error response instead, so a handler failure
// never tears down the server.
func (r *Router) Handle(ctx context.Context, req *protocol.Request) *protocol.Response {
	if req.IsLegacy() {
		return r.handleLegacy(ctx, req)
	}

	switch req.Type {
	case "get_scene_info":
		return r.handleGetSceneInfo(ctx)
	case "get_object_info":
		return r.handleGetObjectInfo(ctx, req.Params)
	case "get_viewport_screenshot":
		return r.handleGetViewportScreenshot(ctx, req.Params)
	case "execute_code":
		return r.handleExecuteCode(ctx, req.Params)
	case "server_shutdown":
		return r.handleServerShutdown()
	case "put_persist_data":
		return r.handlePutPersistData(req.Params)
	case "get_persist_data":
		return r.handleGetPersistData(req.Params)
	case "remove_persist_data":
		return r.handleRemovePersistData(req.Params)
	case "get_polyhaven_status":
		return protocol.Success(map[string]any{
			"enabled": false,
			"message": "asset integrations not supported",
		})
	default:
		msg := fmt.Sprintf("Unknown command type: %s", req.Type)
		logger.Warnf("router: %s", msg)
		return protocol.Failure(msg)
	}
}

func (r *Router) handleLegacy(ctx context.Context, req *protocol.Request) *protocol.Response {
	res := r.runExecuteCode(ctx, protocol.ExecuteCodeParams{Code: req.Code})
	if res.err != nil {
		return protocol.Failure(wireMessage(res.err))
	}
	return protocol.Legacy(res.result.Result, r.Source)
}

func (r *Router) dispatchTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultDispatchTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// --- get_scene_info ----------------------------------------------------

func (r *Router) handleGetSceneInfo(ctx context.Context) *protocol.Response {
	dctx, cancel := r.dispatchTimeout(ctx)
	defer cancel()

	res, err := r.Worker.Dispatch(dctx, func() (any, error) {
		doc := r.Host.Document
		objects := make([]map[string]any, 0, 10)
		for _, obj := range doc.OrderedObjects(10) {
			objects = append(objects, map[string]any{
				"name":     obj.Name,
				"type":     obj.Type,
				"location": []float64{obj.Location[0], obj.Location[1], obj.Location[2]},
			})
		}
		return map[string]any{
			"name":            doc.Name,
			"object_count":    doc.ObjectCount(),
			"objects":         objects,
			"materials_count": doc.MaterialCount(),
		}, nil
	})
	if err != nil {
		return protocol.Failure(wireMessage(err))
	}
	return protocol.Success(res)
}

// --- get_object_info -----------------------------------------------------

func (r *Router) handleGetObjectInfo(ctx context.Context, params json.RawMessage) *protocol.Response {
	var p protocol.GetObjectInfoParams
	if err := unmarshalParams(params, &p); err != nil {
		return protocol.Failure(wireMessage(err))
	}

	dctx, cancel := r.dispatchTimeout(ctx)
	defer cancel()

	res, err := r.Worker.Dispatch(dctx, func() (any, error) {
		obj, ok := r.Host.Document.Objects[p.ObjectName]
		if !ok {
			return nil, fmt.Errorf("Object '%s' not found", p.ObjectName)
		}
		result := map[string]any{
			"name":      obj.Name,
			"type":      obj.Type,
			"location":  []float64{obj.Location[0], obj.Location[1], obj.Location[2]},
			"rotation":  []float64{obj.Rotation[0], obj.Rotation[1], obj.Rotation[2]},
			"scale":     []float64{obj.Scale[0], obj.Scale[1], obj.Scale[2]},
			"visible":   obj.Visible,
			"materials": obj.Materials,
		}
		if obj.Type == "MESH" {
			result["vertex_count"] = obj.Vertices
			result["edge_count"] = obj.Edges
			result["face_count"] = obj.Faces
			result["polygon_count"] = obj.Polygons
		}
		return result, nil
	})
	if err != nil {
		return protocol.Failure(wireMessage(err))
	}
	return protocol.Success(res)
}

// --- get_viewport_screenshot ---------------------------------------------

func (r *Router) handleGetViewportScreenshot(ctx context.Context, params json.RawMessage) *protocol.Response {
	var p protocol.GetViewportScreenshotParams
	if len(params) > 0 {
		if err := unmarshalParams(params, &p); err != nil {
			return protocol.Failure(wireMessage(err))
		}
	}
	if p.MaxSize == 0 {
		p.MaxSize = 800
	}
	if p.Format == "" {
		p.Format = "png"
	}

	dctx, cancel := r.dispatchTimeout(ctx)
	defer cancel()

	res, err := r.Worker.Dispatch(dctx, func() (any, error) {
		width, height, data, err := r.Host.Screenshot(p.MaxSize)
		if err != nil {
			return nil, err
		}
		if p.Format == "jpg" || p.Format == "jpeg" {
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("decoding screenshot: %w", err)
			}
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, img, nil); err != nil {
				return nil, fmt.Errorf("encoding screenshot: %w", err)
			}
			data = buf.Bytes()
		}
		if p.Filepath != "" {
			if err := os.WriteFile(p.Filepath, data, 0o644); err != nil {
				return nil, fmt.Errorf("writing screenshot to %s: %w", p.Filepath, err)
			}
		}
		return map[string]any{
			"width":         width,
			"height":        height,
			"format":        p.Format,
			"image_base64": base64.StdEncoding.EncodeToString(data),
		}, nil
	})
	if err != nil {
		return protocol.Failure(wireMessage(err))
	}
	return protocol.Success(res)
}

// --- execute_code ----------------------------------------------------------

type executeCodeOutcome struct {
	result protocol.ExecuteCodeResult
	err    error
}

func (r *Router) handleExecuteCode(ctx context.Context, params json.RawMessage) *protocol.Response {
	var p protocol.ExecuteCodeParams
	if err := unmarshalParams(params, &p); err != nil {
		return protocol.Failure(wireMessage(err))
	}
	outcome := r.runExecuteCode(ctx, p)
	if outcome.err != nil {
		return protocol.Failure(wireMessage(outcome.err))
	}
	return protocol.Success(outcome.result)
}

func (r *Router) runExecuteCode(ctx context.Context, p protocol.ExecuteCodeParams) executeCodeOutcome {
	source := p.Code
	if p.CodeIsBase64 || p.SendAsBase64 {
		decoded, err := base64.StdEncoding.DecodeString(p.Code)
		if err != nil {
			return executeCodeOutcome{err: bridgeerrors.NewInvalidArgumentError("invalid base64 code payload", err)}
		}
		source = string(decoded)
	}

	dctx, cancel := r.dispatchTimeout(ctx)
	defer cancel()

	res, err := r.Worker.Dispatch(dctx, func() (any, error) {
		runner := script.NewRunner(r.Host)
		stdout, runErr := runner.Run(source)
		if runErr != nil {
			return nil, runErr
		}
		return stdout, nil
	})
	if err != nil {
		return executeCodeOutcome{err: err}
	}

	stdout, _ := res.(string)
	result := protocol.ExecuteCodeResult{
		Executed: true,
		Result:   stdout,
		Output:   protocol.ExecuteOutput{Stdout: stdout, Stderr: ""},
	}
	if p.ReturnAsBase64 {
		result.Result = base64.StdEncoding.EncodeToString([]byte(stdout))
		result.ResultIsBase64 = true
	}
	return executeCodeOutcome{result: result}
}

// --- server_shutdown ----------------------------------------------------

func (r *Router) handleServerShutdown() *protocol.Response {
	if r.Shutdown != nil {
		go r.Shutdown()
	}
	return protocol.Success(nil)
}

// --- persist handlers ----------------------------------------------------

func (r *Router) handlePutPersistData(params json.RawMessage) *protocol.Response {
	var p protocol.PutPersistDataParams
	if err := unmarshalParams(params, &p); err != nil {
		return protocol.Failure(wireMessage(err))
	}
	if p.Key == "" {
		return protocol.Failure("key must be a non-empty string")
	}
	r.Persist.Put(p.Key, p.Data)
	return protocol.Success(map[string]any{"stored": true, "key": p.Key})
}

func (r *Router) handleGetPersistData(params json.RawMessage) *protocol.Response {
	var p protocol.GetPersistDataParams
	if err := unmarshalParams(params, &p); err != nil {
		return protocol.Failure(wireMessage(err))
	}
	data, found := r.Persist.Get(p.Key)
	if !found {
		data = p.Default
	}
	return protocol.Success(map[string]any{"found": found, "data": data, "key": p.Key})
}

func (r *Router) handleRemovePersistData(params json.RawMessage) *protocol.Response {
	var p protocol.RemovePersistDataParams
	if err := unmarshalParams(params, &p); err != nil {
		return protocol.Failure(wireMessage(err))
	}
	removed := r.Persist.Remove(p.Key)
	return protocol.Success(map[string]any{"removed": removed, "key": p.Key})
}

// --- helpers ---------------------------------------------------------------

// wireMessage extracts the bare, taxonomy-free message a client should see
// for err. A *bridgeerrors.Error carries its taxonomy and cause folded into
// Error() for logs; the wire response gets only its Message field, so the
// cause detail never leaks into Response.Message twice.
func wireMessage(err error) string {
	var be *bridgeerrors.Error
	if stderrors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}

func unmarshalParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return bridgeerrors.NewInvalidArgumentError("invalid params", err)
	}
	return nil
}
