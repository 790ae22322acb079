package route53

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

type mockAPI struct {
	changes []*route53.ChangeResourceRecordSetsInput
	sets    []r53types.ResourceRecordSet
	err     error
}

func (m *mockAPI) ChangeResourceRecordSets(_ context.Context, params *route53.ChangeResourceRecordSetsInput, _ ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.changes = append(m.changes, params)
	return &route53.ChangeResourceRecordSetsOutput{}, nil
}

func (m *mockAPI) ListResourceRecordSets(_ context.Context, _ *route53.ListResourceRecordSetsInput, _ ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error) {
	return &route53.ListResourceRecordSetsOutput{ResourceRecordSets: m.sets}, nil
}

func TestDNS_CreateARecord(t *testing.T) {
	api := &mockAPI{}
	dns := New(api, "Z123", "example.net.", 0, logger.NewNop())

	require.NoError(t, dns.CreateARecord(context.Background(), "calm-otter-x1", "203.0.113.10"))

	require.Len(t, api.changes, 1)
	in := api.changes[0]
	assert.Equal(t, "Z123", aws.ToString(in.HostedZoneId))

	change := in.ChangeBatch.Changes[0]
	assert.Equal(t, r53types.ChangeActionUpsert, change.Action)
	assert.Equal(t, "calm-otter-x1.example.net.", aws.ToString(change.ResourceRecordSet.Name))
	assert.Equal(t, r53types.RRTypeA, change.ResourceRecordSet.Type)
	assert.Equal(t, int64(300), aws.ToInt64(change.ResourceRecordSet.TTL))
	assert.Equal(t, "203.0.113.10", aws.ToString(change.ResourceRecordSet.ResourceRecords[0].Value))
}

func TestDNS_CreateARecordError(t *testing.T) {
	dns := New(&mockAPI{err: errors.New("throttled")}, "Z123", "example.net", 60, logger.NewNop())

	err := dns.CreateARecord(context.Background(), "calm-otter-x1", "203.0.113.10")
	assert.ErrorContains(t, err, "throttled")
}

func TestDNS_DeleteRecord(t *testing.T) {
	existing := r53types.ResourceRecordSet{
		Name:            aws.String("calm-otter-x1.example.net."),
		Type:            r53types.RRTypeA,
		TTL:             aws.Int64(60),
		ResourceRecords: []r53types.ResourceRecord{{Value: aws.String("198.51.100.1")}},
	}

	tests := []struct {
		name        string
		sets        []r53types.ResourceRecordSet
		wantDeletes int
	}{
		{"deletes stored set", []r53types.ResourceRecordSet{existing}, 1},
		{"missing record is a no-op", nil, 0},
		{
			"next record in zone is ignored",
			[]r53types.ResourceRecordSet{{Name: aws.String("dry-fox-a2.example.net."), Type: r53types.RRTypeA}},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{sets: tt.sets}
			dns := New(api, "Z123", "example.net", 60, logger.NewNop())

			require.NoError(t, dns.DeleteRecord(context.Background(), "calm-otter-x1"))
			require.Len(t, api.changes, tt.wantDeletes)
			if tt.wantDeletes > 0 {
				change := api.changes[0].ChangeBatch.Changes[0]
				assert.Equal(t, r53types.ChangeActionDelete, change.Action)
				assert.Equal(t, "198.51.100.1", aws.ToString(change.ResourceRecordSet.ResourceRecords[0].Value))
			}
		})
	}
}
