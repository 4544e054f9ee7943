package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/logger"
)

const readBufferSize = 32 << 10

type retrievalOptions struct {
	RunSearch string                `json:"run_search"`
	RealTime  bool                  `json:"real_time"`
	Filters   chat.RetrievalFilters `json:"filters"`
}

type sendMessageBody struct {
	ChatSessionID    int               `json:"chat_session_id"`
	ParentMessageID  *int              `json:"parent_message_id"`
	Message          string            `json:"message"`
	PromptID         int               `json:"prompt_id"`
	SearchDocIDs     []int             `json:"search_doc_ids"`
	RetrievalOptions *retrievalOptions `json:"retrieval_options"`
}

// newSendMessageBody builds the wire request. Explicitly selected documents
// replace retrieval, so retrieval options are only sent without them.
func newSendMessageBody(req chat.SendMessageRequest) sendMessageBody {
	body := sendMessageBody{
		ChatSessionID:   req.ChatSessionID,
		ParentMessageID: req.ParentMessageID,
		Message:         req.Message,
		PromptID:        req.PromptID,
	}
	if len(req.SearchDocIDs) > 0 {
		body.SearchDocIDs = req.SearchDocIDs
		return body
	}
	body.RetrievalOptions = &retrievalOptions{
		RunSearch: "auto",
		RealTime:  true,
		Filters:   req.Filters,
	}
	return body
}

// SendMessage posts the message and streams newline-delimited packets back.
// Every network read that completes at least one line becomes one batch;
// a trailing partial line is carried into the next read.
func (c *Client) SendMessage(ctx context.Context, req chat.SendMessageRequest) (<-chan chat.PacketBatch, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/chat/send-message", newSendMessageBody(req))
	if err != nil {
		return nil, err
	}

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, newAPIError(resp)
	}

	batches := make(chan chat.PacketBatch)
	go readBatches(ctx, resp.Body, batches)
	return batches, nil
}

// readBatches owns body and closes both body and out when done
func readBatches(ctx context.Context, body io.ReadCloser, out chan<- chat.PacketBatch) {
	defer close(out)
	defer body.Close()

	buf := make([]byte, readBufferSize)
	var pending []byte

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)

			if cut := bytes.LastIndexByte(pending, '\n'); cut >= 0 {
				complete := pending[:cut+1]
				rest := make([]byte, len(pending)-cut-1)
				copy(rest, pending[cut+1:])
				pending = rest

				if !emit(ctx, out, complete) {
					return
				}
			}
		}

		if errors.Is(readErr, io.EOF) {
			if len(bytes.TrimSpace(pending)) > 0 {
				emit(ctx, out, pending)
			}
			return
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return
			}
			send(ctx, out, chat.PacketBatch{Err: fmt.Errorf("stream reading error: %w", readErr)})
			return
		}
	}
}

// emit decodes data into one batch and delivers it. It reports whether the
// reader should keep going.
func emit(ctx context.Context, out chan<- chat.PacketBatch, data []byte) bool {
	packets, err := decodeLines(data)
	if err != nil {
		send(ctx, out, chat.PacketBatch{Err: err})
		return false
	}
	if len(packets) == 0 {
		return true
	}
	return send(ctx, out, chat.PacketBatch{Packets: packets})
}

func send(ctx context.Context, out chan<- chat.PacketBatch, batch chat.PacketBatch) bool {
	select {
	case out <- batch:
		return true
	case <-ctx.Done():
		logger.Debug("Packet stream abandoned: %v", ctx.Err())
		return false
	}
}
