package grpc

import (
	"context"
	"log"
	"time"

	"discord-summarizer/models"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client 封装 SyncControl 的 gRPC 客户端连接
type Client struct {
	conn          *grpc.ClientConn
	serverAddress string
	timeout       time.Duration
}

// NewClient 创建新的 gRPC 客户端
func NewClient(serverAddress string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(serverAddress, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:          conn,
		serverAddress: serverAddress,
		timeout:       timeout,
	}, nil
}

// Close 关闭 gRPC 连接
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// GetServerAddress 获取服务器地址
func (c *Client) GetServerAddress() string {
	return c.serverAddress
}

// invoke calls one SyncControl method with the server id and decodes the
// reply into out.
func (c *Client) invoke(ctx context.Context, method, serverID string, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, serverRequest(serverID), resp); err != nil {
		log.Printf("[gRPC] %s for server %s failed: %v", method, serverID, err)
		return err
	}
	return fromStruct(resp, out)
}

func (c *Client) StartSync(ctx context.Context, serverID string) (models.StartSyncResult, error) {
	var res models.StartSyncResult
	err := c.invoke(ctx, "StartSync", serverID, &res)
	return res, err
}

func (c *Client) SyncStatus(ctx context.Context, serverID string) (models.SyncJobState, error) {
	var state models.SyncJobState
	err := c.invoke(ctx, "SyncStatus", serverID, &state)
	return state, err
}

func (c *Client) Summarize(ctx context.Context, serverID string) (models.SummaryResponse, error) {
	var resp models.SummaryResponse
	err := c.invoke(ctx, "Summarize", serverID, &resp)
	return resp, err
}

func (c *Client) ClearCache(ctx context.Context, serverID string) (models.ClearCacheResult, error) {
	var res models.ClearCacheResult
	err := c.invoke(ctx, "ClearCache", serverID, &res)
	return res, err
}

func (c *Client) ListChannels(ctx context.Context, serverID string) ([]models.ChannelInfo, error) {
	var list channelList
	if err := c.invoke(ctx, "ListChannels", serverID, &list); err != nil {
		return nil, err
	}
	return list.Channels, nil
}

// Healthy reports whether the server answers its health check as serving.
func (c *Client) Healthy(ctx context.Context) (bool, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return false, err
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}
