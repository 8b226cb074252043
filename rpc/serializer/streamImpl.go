package serializer

import (
	"fmt"
	"github.com/ValentinKolb/dRPC/lib/registry"
	"github.com/ValentinKolb/dRPC/lib/stream"
	"github.com/ValentinKolb/dRPC/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
	"strings"
)

var Logger = logger.GetLogger("serializer")

// NewStreamSerializer creates a serializer encoding requests and responses as
// object graph streams. Type lookups go through types, which is shared by all
// calls and must therefore be immutable (e.g. a *registry.Registry).
func NewStreamSerializer(types stream.TypeSerializer, conf common.StreamConf) (IRPCSerializer, error) {
	s := &streamSerializerImpl{
		types:    types,
		version:  conf.EffectiveVersion(),
		maxDepth: conf.EffectiveMaxDepth(),
	}
	if conf.ElideTypeNames {
		s.flags = stream.FlagElideTypeNames
	}

	// validate the configuration once, instead of failing every call
	if _, err := s.newWriter(""); err != nil {
		return nil, err
	}
	return s, nil
}

// streamSerializerImpl implements the IRPCSerializer interface using streams.
// Every call uses a fresh Writer / Reader, streams are single use.
type streamSerializerImpl struct {
	types    stream.TypeSerializer
	version  int
	flags    stream.Flags
	maxDepth int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (s *streamSerializerImpl) SerializeRequest(req *common.Request) ([]byte, error) {
	w, err := s.newWriter(req.Token)
	if err != nil {
		return nil, err
	}

	if req.Token != "" {
		if err := w.WriteRPCToken(req.Token); err != nil {
			return nil, err
		}
	}
	w.WriteString(req.Service)
	w.WriteString(req.Method)
	w.WriteInt32(int32(len(req.Args)))
	for i, arg := range req.Args {
		if err := w.WriteObject(arg); err != nil {
			return nil, fmt.Errorf("argument %d of %s.%s: %w", i, req.Service, req.Method, err)
		}
	}

	return w.Bytes(), nil
}

func (s *streamSerializerImpl) DeserializeRequest(b []byte) (*common.Request, error) {
	r := stream.NewReader(s.types, stream.WithMaxDepth(s.maxDepth))
	if err := r.PrepareToRead(string(b)); err != nil {
		return nil, err
	}

	req := &common.Request{}
	var err error

	if r.HasFlags(stream.FlagRPCTokenIncluded) {
		if req.Token, err = r.ReadRPCToken(); err != nil {
			return nil, err
		}
	}
	if req.Service, err = r.ReadString(); err != nil {
		return nil, err
	}
	if req.Method, err = r.ReadString(); err != nil {
		return nil, err
	}

	argc, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	if argc < 0 || int(argc) > r.Remaining() {
		return nil, &stream.MalformedStreamError{Reason: fmt.Sprintf("invalid argument count %d", argc)}
	}

	if argc > 0 {
		req.Args = make([]any, argc)
	}
	for i := range req.Args {
		if req.Args[i], err = r.ReadObject(); err != nil {
			return nil, fmt.Errorf("argument %d of %s.%s: %w", i, req.Service, req.Method, err)
		}
	}

	if err := expectEnd(r); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *streamSerializerImpl) SerializeResponse(resp *common.Response) ([]byte, error) {
	w, err := s.newWriter("")
	if err != nil {
		return nil, err
	}

	prefix := common.StatusOK
	if resp.Err != nil {
		prefix = common.StatusEX
		err = w.WriteObject(resp.Err)
	} else {
		err = w.WriteObject(resp.Value)
	}
	if err != nil {
		return nil, err
	}

	encoded := w.String()
	out := make([]byte, 0, len(common.ResponsePrefixOK)+len(encoded))
	out = append(out, prefix.String()...)
	out = append(out, encoded...)
	return out, nil
}

func (s *streamSerializerImpl) DeserializeResponse(b []byte) (*common.Response, error) {
	encoded := string(b)

	var status common.ResponseStatus
	switch {
	case strings.HasPrefix(encoded, common.ResponsePrefixOK):
		status = common.StatusOK
	case strings.HasPrefix(encoded, common.ResponsePrefixEX):
		status = common.StatusEX
	default:
		return nil, &stream.MalformedStreamError{Reason: "response has no status prefix"}
	}

	r := stream.NewReader(s.types, stream.WithMaxDepth(s.maxDepth))
	if err := r.PrepareToRead(encoded[len(status.String()):]); err != nil {
		return nil, err
	}

	resp := &common.Response{}
	if status == common.StatusEX {
		ex, err := registry.ReadObjectAs[*registry.RemoteException](r)
		if err != nil {
			return nil, err
		}
		if ex == nil {
			return nil, &stream.MalformedStreamError{Reason: "exception response without exception"}
		}
		resp.Err = ex
	} else {
		value, err := r.ReadObject()
		if err != nil {
			return nil, err
		}
		resp.Value = value
	}

	if err := expectEnd(r); err != nil {
		return nil, err
	}
	return resp, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// newWriter creates a single use writer, including the token flag if needed
func (s *streamSerializerImpl) newWriter(token string) (*stream.Writer, error) {
	flags := s.flags
	if token != "" {
		flags |= stream.FlagRPCTokenIncluded
	}
	return stream.NewWriter(s.types, stream.WithVersion(s.version), stream.WithFlags(flags))
}

// expectEnd fails if the stream holds unread tokens
func expectEnd(r *stream.Reader) error {
	if n := r.Remaining(); n != 0 {
		return &stream.MalformedStreamError{Reason: fmt.Sprintf("%d unexpected trailing tokens", n)}
	}
	return nil
}
