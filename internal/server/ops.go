package server

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"fsgate/internal/fsop"
	"fsgate/internal/logger"
	"fsgate/internal/security"
	"fsgate/internal/stream"
)

// opRequest is the wire form of an operation descriptor. Path fields are
// percent-encoded relative paths; which fields matter depends on op.
type opRequest struct {
	Op             string `json:"op" binding:"required"`
	Path           string `json:"path"`
	From           string `json:"from"`
	To             string `json:"to"`
	Src            string `json:"src"`
	Dst            string `json:"dst"`
	Target         string `json:"target"`
	Link           string `json:"link"`
	Recursive      bool   `json:"recursive"`
	FollowSymlinks bool   `json:"follow_symlinks"`
	Mode           string `json:"mode"`
	Perm           uint32 `json:"perm"`
	Dir            bool   `json:"dir"`
}

// handleOp decodes a descriptor, dispatches it and encodes the response
// variant. Open with mode "read" streams the file body; other modes create
// or truncate the target and report done.
func (s *Server) handleOp(c *gin.Context) {
	var req opRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	op, err := buildOp(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.cfg.ReadOnly && fsop.Mutates(op) {
		c.JSON(http.StatusForbidden, gin.H{"error": "read-only mode"})
		return
	}

	resp, err := s.router.Do(c.Request.Context(), op)
	if err != nil {
		s.opError(c, err)
		return
	}

	// An open handle only flows back as a body for read opens; handles
	// opened for writing are closed once their creation side effect is
	// done.
	if file, ok := resp.(fsop.File); ok {
		if openOp, isOpen := op.(fsop.Open); !isOpen || openOp.Mode != fsop.Read {
			file.Handle.Close()
			c.JSON(http.StatusOK, gin.H{"status": "done"})
			return
		}
		s.streamHandle(c, file)
		return
	}
	s.writeOpResponse(c, resp)
}

// buildOp validates path syntax and maps the wire form onto a descriptor.
// Every caller-supplied path passes CleanRequestPath before the router
// sees it, so malformed text fails closed without filesystem access.
func buildOp(req *opRequest) (fsop.Op, error) {
	clean := func(raw string) (string, error) {
		name, err := security.CleanRequestPath(raw)
		if err != nil {
			return "", fmt.Errorf("invalid path %q", raw)
		}
		return name, nil
	}

	switch req.Op {
	case "copy":
		from, err := clean(req.From)
		if err != nil {
			return nil, err
		}
		to, err := clean(req.To)
		if err != nil {
			return nil, err
		}
		return fsop.Copy{From: from, To: to}, nil
	case "create_dir":
		path, err := clean(req.Path)
		if err != nil {
			return nil, err
		}
		return fsop.CreateDir{Path: path, Recursive: req.Recursive}, nil
	case "exists":
		path, err := clean(req.Path)
		if err != nil {
			return nil, err
		}
		return fsop.Exists{Path: path}, nil
	case "follow_link":
		path, err := clean(req.Path)
		if err != nil {
			return nil, err
		}
		return fsop.FollowLink{Path: path}, nil
	case "metadata":
		path, err := clean(req.Path)
		if err != nil {
			return nil, err
		}
		return fsop.GetMetadata{Path: path, FollowSymlinks: req.FollowSymlinks}, nil
	case "hard_link":
		src, err := clean(req.Src)
		if err != nil {
			return nil, err
		}
		dst, err := clean(req.Dst)
		if err != nil {
			return nil, err
		}
		return fsop.HardLink{Src: src, Dst: dst}, nil
	case "open":
		path, err := clean(req.Path)
		if err != nil {
			return nil, err
		}
		mode := fsop.OpenMode(req.Mode)
		if mode == "" {
			mode = fsop.Read
		}
		return fsop.Open{Path: path, Mode: mode, Perm: fs.FileMode(req.Perm)}, nil
	case "read_dir":
		path, err := clean(req.Path)
		if err != nil {
			return nil, err
		}
		return fsop.ReadDir{Path: path}, nil
	case "remove_dir":
		path, err := clean(req.Path)
		if err != nil {
			return nil, err
		}
		return fsop.RemoveDir{Path: path, Recursive: req.Recursive}, nil
	case "remove_file":
		path, err := clean(req.Path)
		if err != nil {
			return nil, err
		}
		return fsop.RemoveFile{Path: path}, nil
	case "rename":
		from, err := clean(req.From)
		if err != nil {
			return nil, err
		}
		to, err := clean(req.To)
		if err != nil {
			return nil, err
		}
		return fsop.Rename{From: from, To: to}, nil
	case "set_permissions":
		path, err := clean(req.Path)
		if err != nil {
			return nil, err
		}
		return fsop.SetPermissions{Path: path, Perm: fs.FileMode(req.Perm)}, nil
	case "symlink":
		target, err := clean(req.Target)
		if err != nil {
			return nil, err
		}
		link, err := clean(req.Link)
		if err != nil {
			return nil, err
		}
		return fsop.Symlink{Target: target, Link: link, Dir: req.Dir}, nil
	}
	return nil, fmt.Errorf("unknown op %q", req.Op)
}

func (s *Server) writeOpResponse(c *gin.Context, resp fsop.Response) {
	switch resp := resp.(type) {
	case fsop.Done:
		c.JSON(http.StatusOK, gin.H{"status": "done"})
	case fsop.Copied:
		c.JSON(http.StatusOK, gin.H{"status": "done", "copied": resp.Bytes})
	case fsop.Directory:
		entries := make([]listingEntry, 0, len(resp.Entries))
		for _, entry := range resp.Entries {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			entries = append(entries, listingEntry{
				Name:    entry.Name(),
				Size:    info.Size(),
				IsDir:   entry.IsDir(),
				Mode:    info.Mode().String(),
				ModTime: info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
			})
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	case fsop.Metadata:
		c.JSON(http.StatusOK, gin.H{
			"name":     resp.Info.Name(),
			"size":     resp.Info.Size(),
			"is_dir":   resp.Info.IsDir(),
			"mode":     resp.Info.Mode().String(),
			"mod_time": resp.Info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		})
	case fsop.Presence:
		c.JSON(http.StatusOK, gin.H{"exists": resp.Exists})
	case fsop.PointsTo:
		c.JSON(http.StatusOK, gin.H{"target": resp.Target})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unhandled response"})
	}
}

// streamHandle sends a read-opened handle's content from its current
// position under the usual chunking discipline.
func (s *Server) streamHandle(c *gin.Context, resp fsop.File) {
	sess, err := stream.Open(resp.Handle, s.cfg.ChunkSizeKB*1024, nil)
	if err != nil {
		s.opError(c, err)
		return
	}
	defer sess.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err := sess.WriteTo(c.Writer); err != nil {
		logger.Log.Warn().Err(err).Msg("op stream aborted")
	}
}

// opError maps dispatch failures onto statuses without leaking detail:
// confinement rejections already read as absence by the time they get here.
func (s *Server) opError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, fs.ErrExist):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, fs.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, fs.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid operation"})
	default:
		logger.Log.Error().Err(err).Msg("operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
