package web

import (
	"log"
	"net/http"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// HandlerFunc is the shape of every route handler: it receives the request
// context and returns a response envelope. Handlers never write to the
// connection themselves.
type HandlerFunc func(*Context) *Response

type segment struct {
	literal string
	param   string // non-empty for {name} segments
}

type route struct {
	pattern  string
	segments []segment
	literals int
	order    int
	handler  HandlerFunc
}

// Registry is the write-once route table. Routes are registered during
// startup and the registry is then handed to NewRouter, which freezes it;
// registering after that point panics.
type Registry struct {
	static  map[string]map[string]HandlerFunc // method -> path -> handler
	dynamic map[string][]route                // method -> routes
	frozen  bool
	next    int
}

func NewRegistry() *Registry {
	return &Registry{
		static:  map[string]map[string]HandlerFunc{},
		dynamic: map[string][]route{},
	}
}

// Handle registers handler for the given methods and path pattern. Patterns
// containing {name} segments are dynamic; all others are matched exactly.
func (reg *Registry) Handle(methods []string, pattern string, handler HandlerFunc) {
	if reg.frozen {
		panic("web: route registered after router construction: " + pattern)
	}
	if strings.Contains(pattern, "{") {
		rt := route{pattern: pattern, order: reg.next, handler: handler}
		reg.next++
		for _, part := range strings.Split(pattern, "/") {
			if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
				rt.segments = append(rt.segments, segment{param: part[1 : len(part)-1]})
			} else {
				rt.segments = append(rt.segments, segment{literal: part})
				rt.literals++
			}
		}
		for _, method := range methods {
			reg.dynamic[method] = append(reg.dynamic[method], rt)
		}
		return
	}
	for _, method := range methods {
		if reg.static[method] == nil {
			reg.static[method] = map[string]HandlerFunc{}
		}
		reg.static[method][pattern] = handler
	}
}

// Router dispatches requests against a frozen Registry. A static match always
// wins over a dynamic one; among dynamic routes the most specific pattern
// (most literal segments) is tried first, ties broken by registration order.
type Router struct {
	registry *Registry
	db       *gorm.DB
	flash    *FlashStore

	staticPrefix string
	staticRoot   string
}

// RouterConfig carries the router's collaborators and the static-asset mount.
type RouterConfig struct {
	DB           *gorm.DB
	Flash        *FlashStore
	StaticPrefix string // e.g. "/front/"
	StaticRoot   string // directory served under StaticPrefix
}

func NewRouter(reg *Registry, cfg RouterConfig) *Router {
	reg.frozen = true
	for method := range reg.dynamic {
		routes := reg.dynamic[method]
		sort.SliceStable(routes, func(i, j int) bool {
			if routes[i].literals != routes[j].literals {
				return routes[i].literals > routes[j].literals
			}
			return routes[i].order < routes[j].order
		})
	}
	return &Router{
		registry:     reg,
		db:           cfg.DB,
		flash:        cfg.Flash,
		staticPrefix: cfg.StaticPrefix,
		staticRoot:   cfg.StaticRoot,
	}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if rt.staticPrefix != "" && strings.HasPrefix(r.URL.Path, rt.staticPrefix) {
		rt.serveStatic(w, r)
		return
	}

	req := newRequest(r)
	handler := rt.lookup(req)
	if handler == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	ctx := &Context{request: req, flash: rt.flash, remote: r.RemoteAddr}
	if rt.db != nil {
		ctx.db = rt.db.WithContext(r.Context())
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[web] panic in %s %s: %v", req.Method, req.Path, rec)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}()

	resp := handler(ctx)
	if resp == nil {
		log.Printf("[web] nil response from %s %s", req.Method, req.Path)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	resp.write(w)
}

// lookup resolves the handler for the request, binding path parameters for
// dynamic matches.
func (rt *Router) lookup(req *Request) HandlerFunc {
	if byPath, ok := rt.registry.static[req.Method]; ok {
		if handler, ok := byPath[req.Path]; ok {
			return handler
		}
	}

	parts := strings.Split(req.Path, "/")
	for _, candidate := range rt.registry.dynamic[req.Method] {
		if len(candidate.segments) != len(parts) {
			continue
		}
		params := map[string]string{}
		matched := true
		for i, seg := range candidate.segments {
			if seg.param != "" {
				params[seg.param] = parts[i]
			} else if seg.literal != parts[i] {
				matched = false
				break
			}
		}
		if matched {
			req.Params = params
			return candidate.handler
		}
	}
	return nil
}
