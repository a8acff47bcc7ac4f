package protocol

// Message is anything that travels over the daemon's IPC socket.
type Message interface {
	Type() MessageType
}

type DeviceInfoReq struct{}

func (DeviceInfoReq) Type() MessageType { return MsgDeviceInfoReq }

type DeviceInfoRes struct {
	ID          string
	Name        string
	OnlineCount int
	Port        int
}

func (DeviceInfoRes) Type() MessageType { return MsgDeviceInfoRes }

type Error struct {
	Code    ErrorCode
	Message string
}

func (Error) Type() MessageType { return MsgError }

func (e *Error) Error() string {
	return e.Code.String() + ": " + e.Message
}

type HistoryReq struct {
	Limit int
}

func (HistoryReq) Type() MessageType { return MsgHistoryReq }

type HistoryRes struct {
	Records []TransferRecord
}

func (HistoryRes) Type() MessageType { return MsgHistoryRes }

type TransferRecord struct {
	CreatedAt int64
	Direction string
	Error     string
	FileName  string
	FilePath  string
	FileSize  int64
	Peer      string
	Status    string
}

// Notification carries one session or transfer event to a watcher.
// Only the fields relevant to Kind are set.
type Notification struct {
	Error     string
	FileName  string
	FilePath  string
	FileSize  int64
	Kind      string
	Peer      PeerInfo
	Sender    string
	Timestamp int64
}

func (Notification) Type() MessageType { return MsgNotification }

type PeerInfo struct {
	Addr     string
	ID       string
	LastSeen int64
	Name     string
}

type PeerListReq struct{}

func (PeerListReq) Type() MessageType { return MsgPeerListReq }

type PeerListRes struct {
	Peers []PeerInfo
}

func (PeerListRes) Type() MessageType { return MsgPeerListRes }

type SendFileReq struct {
	Path     string
	PeerName string
}

func (SendFileReq) Type() MessageType { return MsgSendFileReq }

type SendFileRes struct{}

func (SendFileRes) Type() MessageType { return MsgSendFileRes }

type WatchReq struct{}

func (WatchReq) Type() MessageType { return MsgWatchReq }
