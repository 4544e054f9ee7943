package chat

// Packet is one typed unit of streamed content. The set of implementations is
// closed: AnswerPiece, DocumentsFound, StreamError and FinalMetadata.
type Packet interface {
	packet()
}

// AnswerPiece carries text to append to the in-flight answer
type AnswerPiece struct {
	Text string
}

// DocumentsFound replaces the document set retrieved for the current turn
type DocumentsFound struct {
	Documents      []Document
	RephrasedQuery string
}

// StreamError is a failure reported by the backend inside the stream
type StreamError struct {
	Message string
}

// FinalMetadata supplies the permanent identifiers once the answer is stored
type FinalMetadata struct {
	MessageID       int
	ParentMessageID *int
	RephrasedQuery  string
	Documents       []Document
	Citations       Citations
}

func (AnswerPiece) packet()    {}
func (DocumentsFound) packet() {}
func (StreamError) packet()    {}
func (FinalMetadata) packet()  {}

// PacketBatch is what a packet source delivers per read. A non-nil Err aborts
// the turn; packets in the same batch are ignored.
type PacketBatch struct {
	Packets []Packet
	Err     error
}

// PacketKind names the variant of a packet for logging
func PacketKind(p Packet) string {
	switch p.(type) {
	case AnswerPiece:
		return "answer_piece"
	case DocumentsFound:
		return "documents"
	case StreamError:
		return "error"
	case FinalMetadata:
		return "final"
	default:
		return "unknown"
	}
}
