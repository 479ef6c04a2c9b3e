package rpc

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, CodecName, c.Name())
}

func TestCodec_UploadMessage(t *testing.T) {
	c := encoding.GetCodec(CodecName)

	header := &UploadMessage{Header: &UploadHeader{ParentID: "p-1", Name: "résumé.pdf"}}
	b, err := c.Marshal(header)
	require.NoError(t, err)
	out := &UploadMessage{}
	require.NoError(t, c.Unmarshal(b, out))
	assert.Equal(t, header, out)

	chunk := bytes.Repeat([]byte{0, 1, 2, 255}, ChunkSize/4)
	b, err = c.Marshal(&UploadMessage{Chunk: chunk})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(b), len(chunk)+8, "chunks are not base64 encoded")

	out = &UploadMessage{}
	require.NoError(t, c.Unmarshal(b, out))
	assert.Equal(t, chunk, out.Chunk)
	assert.Nil(t, out.Header)
}

func TestCodec_DownloadMessage(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	created := time.Date(2025, 3, 1, 10, 0, 0, 123, time.UTC)

	in := &DownloadMessage{Node: &Node{
		ID: "n-1", ParentID: "d-1", Name: "a.txt", Kind: "file", Size: 1 << 40,
		CreatedAt: created, UpdatedAt: created.Add(time.Hour),
	}}
	b, err := c.Marshal(in)
	require.NoError(t, err)
	out := &DownloadMessage{}
	require.NoError(t, c.Unmarshal(b, out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("node mismatch (-want +got):\n%s", diff)
	}

	b, err = c.Marshal(&DownloadMessage{Chunk: []byte("tail")})
	require.NoError(t, err)
	out = &DownloadMessage{}
	require.NoError(t, c.Unmarshal(b, out))
	assert.Nil(t, out.Node)
	assert.Equal(t, []byte("tail"), out.Chunk)
}

func TestCodec_RejectsMalformedStreamMessage(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	// tag for field 2 (bytes) followed by a length that runs past the end
	assert.Error(t, c.Unmarshal([]byte{0x12, 0x10, 'x'}, &UploadMessage{}))
	// field 1 sent as a varint
	assert.Error(t, c.Unmarshal([]byte{0x08, 0x01}, &DownloadMessage{}))
}

func TestCodec_UnaryMessagesUseJSON(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	ttl := int64(60)
	b, err := c.Marshal(&ShareRequest{NodeID: "n-1", ReadOnly: true, TTLSeconds: &ttl})
	require.NoError(t, err)
	assert.JSONEq(t, `{"node_id":"n-1","read_only":true,"ttl_seconds":60}`, string(b))

	out := &ShareRequest{}
	require.NoError(t, c.Unmarshal(b, out))
	require.NotNil(t, out.TTLSeconds)
	assert.Equal(t, ttl, *out.TTLSeconds)
}

func TestServiceDesc_CoversEveryMethod(t *testing.T) {
	names := map[string]bool{}
	for _, m := range ServiceDesc.Methods {
		names["/"+ServiceName+"/"+m.MethodName] = true
	}
	for _, s := range ServiceDesc.Streams {
		names["/"+ServiceName+"/"+s.StreamName] = true
	}

	for _, m := range []string{
		MethodRegister, MethodLogin, MethodLogout, MethodMkdir, MethodList, MethodStat,
		MethodDelete, MethodRename, MethodMove, MethodShare, MethodUnshare, MethodUpload, MethodDownload,
	} {
		assert.True(t, names[m], m)
	}
	assert.True(t, ServiceDesc.Streams[0].ClientStreams)
	assert.True(t, ServiceDesc.Streams[1].ServerStreams)
}
