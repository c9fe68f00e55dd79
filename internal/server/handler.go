package server

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"fsgate/internal/fsop"
	"fsgate/internal/logger"
	"fsgate/internal/ranges"
	"fsgate/internal/security"
	"fsgate/internal/source"
	"fsgate/internal/stream"
)

// serveFile streams one file, honoring Range, If-None-Match and HEAD.
// Directories answer with a JSON listing. Confinement rejections and
// missing files are indistinguishable 404s.
func (s *Server) serveFile(c *gin.Context) {
	name, err := security.CleanRequestPath(strings.TrimPrefix(c.Param("path"), "/"))
	if err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	if s.cfg.DisableDotFiles && security.HasHiddenComponent(name) {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	f, err := s.store.Open(c.Request.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, source.ErrIsDirectory):
			s.serveDirectory(c, name)
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
			c.AbortWithStatus(http.StatusNotFound)
		default:
			logger.Log.Error().Err(err).Str("path", name).Msg("open source")
			c.AbortWithStatus(http.StatusInternalServerError)
		}
		return
	}

	size := f.Size()
	etag := etagFor(name, size, f.ModTime())
	c.Header("ETag", etag)
	c.Header("Accept-Ranges", "bytes")

	if c.GetHeader("If-None-Match") == etag {
		f.Close()
		c.Status(http.StatusNotModified)
		return
	}

	status := http.StatusOK
	length := size
	var rng *ranges.ByteRange
	if hdr := c.GetHeader("Range"); hdr != "" {
		rs, err := ranges.Parse(hdr, size)
		switch {
		case errors.Is(err, ranges.ErrUnsatisfiable):
			f.Close()
			c.Header("Content-Range", fmt.Sprintf("bytes */%d", size))
			c.AbortWithStatus(http.StatusRequestedRangeNotSatisfiable)
			return
		case err != nil:
			// Malformed Range headers are ignored; the full content
			// response below applies.
		default:
			// Only the first validated range is serviced; additional
			// ranges are accepted syntactically but unimplemented.
			rng = &rs[0]
			status = http.StatusPartialContent
			length = rng.Length()
			c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.Start, rng.End, size))
		}
	}

	c.Header("Content-Type", contentTypeFor(name))
	c.Header("Content-Length", strconv.FormatInt(length, 10))

	if c.Request.Method == http.MethodHead {
		f.Close()
		c.Status(status)
		return
	}

	sess, err := stream.Open(f, s.cfg.ChunkSizeKB*1024, rng)
	if err != nil {
		// stream.Open released the source on failure.
		logger.Log.Error().Err(err).Str("path", name).Msg("open stream")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	defer sess.Close()

	c.Status(status)
	if _, err := sess.WriteTo(c.Writer); err != nil {
		// The status line is out; all that is left is to stop writing.
		logger.Log.Warn().Err(err).Str("path", name).Msg("stream aborted")
	}
}

type listingEntry struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	IsDir   bool   `json:"is_dir"`
	Mode    string `json:"mode"`
	ModTime string `json:"mod_time"`
}

func (s *Server) serveDirectory(c *gin.Context, name string) {
	resp, err := s.router.Do(c.Request.Context(), fsop.ReadDir{Path: name})
	if err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	dir, ok := resp.(fsop.Directory)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	entries := make([]listingEntry, 0, len(dir.Entries))
	for _, entry := range dir.Entries {
		if s.cfg.DisableDotFiles && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
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

	c.JSON(http.StatusOK, gin.H{
		"path":    name,
		"entries": entries,
	})
}

func contentTypeFor(name string) string {
	if ctype := mime.TypeByExtension(path.Ext(name)); ctype != "" {
		return ctype
	}
	return "application/octet-stream"
}
