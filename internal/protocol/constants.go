package protocol

type MessageType uint16

const (
	MsgDeviceInfoReq MessageType = 0x0020
	MsgDeviceInfoRes MessageType = 0x0021
	MsgError         MessageType = 0x00FF
	MsgHistoryReq    MessageType = 0x0040
	MsgHistoryRes    MessageType = 0x0041
	MsgNotification  MessageType = 0x0051
	MsgPeerListReq   MessageType = 0x0010
	MsgPeerListRes   MessageType = 0x0011
	MsgSendFileReq   MessageType = 0x0030
	MsgSendFileRes   MessageType = 0x0031
	MsgWatchReq      MessageType = 0x0050
)

func (t MessageType) String() string {
	switch t {
	case MsgDeviceInfoReq:
		return "DEVICE_INFO_REQ"
	case MsgDeviceInfoRes:
		return "DEVICE_INFO_RES"
	case MsgError:
		return "ERROR"
	case MsgHistoryReq:
		return "HISTORY_REQ"
	case MsgHistoryRes:
		return "HISTORY_RES"
	case MsgNotification:
		return "NOTIFICATION"
	case MsgPeerListReq:
		return "PEER_LIST_REQ"
	case MsgPeerListRes:
		return "PEER_LIST_RES"
	case MsgSendFileReq:
		return "SEND_FILE_REQ"
	case MsgSendFileRes:
		return "SEND_FILE_RES"
	case MsgWatchReq:
		return "WATCH_REQ"
	default:
		return "UNKNOWN"
	}
}

type ErrorCode uint16

const (
	ErrUnknown       ErrorCode = 0x0000
	ErrInvalidMsg    ErrorCode = 0x0001
	ErrFileNotFound  ErrorCode = 0x0002
	ErrPeerNotOnline ErrorCode = 0x0004
	ErrTransfer      ErrorCode = 0x0005
	ErrInternal      ErrorCode = 0x00FF
)

func (e ErrorCode) String() string {
	switch e {
	case ErrInvalidMsg:
		return "INVALID_MESSAGE"
	case ErrFileNotFound:
		return "FILE_NOT_FOUND"
	case ErrPeerNotOnline:
		return "PEER_NOT_ONLINE"
	case ErrTransfer:
		return "TRANSFER_FAILED"
	case ErrInternal:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Notification kinds, as shown to front ends.
const (
	KindPeerOnline   = "peer-online"
	KindPeerOffline  = "peer-offline"
	KindFileReceived = "file-received"
	KindReceiveError = "receive-error"
)
